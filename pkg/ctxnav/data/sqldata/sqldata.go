// Package sqldata is a data.Model stored in SQLite. Every entity set is a
// table whose columns are the entity set's key and property names.
package sqldata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/metadata"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"

	_ "modernc.org/sqlite"
)

// ErrUnsupportedFilter is returned for filter paths the model cannot translate.
var ErrUnsupportedFilter = errors.New("sqldata: unsupported filter")

const siblingNavigation = "SiblingEntity"

type table struct {
	name    string
	keys    []path.Key
	columns []string
	types   map[string]string
}

func (t *table) has(column string) bool {
	_, ok := t.types[column]
	return ok
}

// Model is a data.Model on top of a SQLite database.
type Model struct {
	db     *sql.DB
	tables map[string]*table
}

var _ data.Model = (*Model)(nil)

// Open opens (or creates) the database at dsn and ensures a table exists for
// every entity set.
func Open(dsn string, sets ...metadata.EntitySet) (*Model, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldata: open db: %w", err)
	}

	m := &Model{db: db, tables: make(map[string]*table)}
	for _, set := range sets {
		if err := m.createTable(set); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return m, nil
}

// Close closes the database.
func (m *Model) Close() error {
	return m.db.Close()
}

func (m *Model) createTable(set metadata.EntitySet) error {
	t := &table{name: set.Name, types: make(map[string]string)}
	for name, typ := range set.Properties {
		t.types[name] = typ
	}
	for _, key := range set.Keys {
		if _, ok := t.types[key]; !ok {
			t.types[key] = metadata.TypeString
		}
		t.keys = append(t.keys, path.Key{Name: key, String: t.types[key] == metadata.TypeString})
	}
	for name := range t.types {
		t.columns = append(t.columns, name)
	}
	sort.Strings(t.columns)

	defs := make([]string, 0, len(t.columns)+1)
	for _, col := range t.columns {
		defs = append(defs, fmt.Sprintf("%s %s", quote(col), affinity(t.types[col])))
	}
	keyCols := make([]string, len(set.Keys))
	for i, key := range set.Keys {
		keyCols[i] = quote(key)
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keyCols, ", ")))

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quote(set.Name), strings.Join(defs, ",\n\t"))
	if _, err := m.db.Exec(stmt); err != nil {
		return fmt.Errorf("sqldata: create table %s: %w", set.Name, err)
	}
	m.tables[set.Name] = t
	return nil
}

// Insert stores a row and returns its context path.
func (m *Model) Insert(ctx context.Context, set string, values map[string]any) (string, error) {
	t, ok := m.tables[set]
	if !ok {
		return "", fmt.Errorf("sqldata: unknown entity set %q", set)
	}
	p, ok := path.BuildPath(t.keys, set, path.Values(values))
	if !ok {
		return "", fmt.Errorf("sqldata: %s row lacks key values", set)
	}

	cols := make([]string, 0, len(values))
	marks := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, col := range t.columns {
		v, ok := values[col]
		if !ok {
			continue
		}
		cols = append(cols, quote(col))
		marks = append(marks, "?")
		args = append(args, toSQL(v))
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(set), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := m.db.ExecContext(ctx, stmt, args...); err != nil {
		return "", fmt.Errorf("sqldata: insert into %s: %w", set, err)
	}
	return "/" + p, nil
}

// BindContext reads the row addressed by the last segment of p.
func (m *Model) BindContext(ctx context.Context, p string, params data.BindParams) (data.Context, error) {
	p = path.Absolute(path.StripLeadingSlashes(p))
	segments := strings.Split(path.StripLeadingSlashes(p), "/")
	set, keys, err := path.ParseKeyPredicate(segments[len(segments)-1])
	if err != nil {
		return nil, err
	}
	t, ok := m.tables[set]
	if !ok || len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", data.ErrNoSuchEntity, p)
	}

	var (
		conds []string
		args  []any
	)
	for i, kv := range keys {
		name := kv.Name
		if name == "" {
			if i >= len(t.keys) {
				return nil, fmt.Errorf("%w: %s", data.ErrNoSuchEntity, p)
			}
			name = t.keys[i].Name
		}
		if !t.has(name) {
			return nil, fmt.Errorf("%w: %s", data.ErrNoSuchEntity, p)
		}
		conds = append(conds, quote(name)+" = ?")
		args = append(args, toSQL(parseLiteral(kv.Value, kv.Quoted)))
	}

	internal.GetInternalLogger().Debug("Binding context", "path", p, "group", params.GroupID)
	rows, err := m.query(ctx, t, "t", strings.Join(conds, " AND "), args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", data.ErrNoSuchEntity, p)
	}

	b := &binding{kind: constants.BindingContext, path: p}
	c := &Context{model: m, table: t, path: p, values: rows[0], binding: b}
	b.contexts = []*Context{c}
	return c, nil
}

// BindList returns the rows of the entity set addressed by p matching filter.
func (m *Model) BindList(ctx context.Context, p string, filter *data.Filter) ([]data.Context, error) {
	set := path.EntitySetOf(p)
	t, ok := m.tables[set]
	if !ok {
		return nil, fmt.Errorf("sqldata: unknown entity set %q", set)
	}

	var args []any
	where, err := m.where(t, filter, &args)
	if err != nil {
		return nil, err
	}
	rows, err := m.query(ctx, t, "t", where, args)
	if err != nil {
		return nil, err
	}

	list := &binding{kind: constants.BindingList, path: "/" + set}
	list.header = &Context{model: m, table: t, path: "/" + set, binding: list}
	result := make([]data.Context, 0, len(rows))
	for _, values := range rows {
		rowPath, _ := path.BuildPath(t.keys, set, path.Values(values))
		c := &Context{model: m, table: t, path: "/" + rowPath, values: values, binding: list}
		list.contexts = append(list.contexts, c)
		result = append(result, c)
	}
	return result, nil
}

func (m *Model) query(ctx context.Context, t *table, alias, where string, args []any) ([]map[string]any, error) {
	cols := make([]string, len(t.columns))
	for i, col := range t.columns {
		cols[i] = alias + "." + quote(col)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s %s", strings.Join(cols, ", "), quote(t.name), alias)
	if where != "" {
		stmt += " WHERE " + where
	}
	stmt += " ORDER BY rowid"

	rows, err := m.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqldata: query %s: %w", t.name, err)
	}
	defer rows.Close()

	var result []map[string]any
	for rows.Next() {
		raw := make([]any, len(t.columns))
		ptrs := make([]any, len(t.columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqldata: scan %s: %w", t.name, err)
		}
		values := make(map[string]any, len(t.columns))
		for i, col := range t.columns {
			values[col] = fromSQL(raw[i], t.types[col])
		}
		result = append(result, values)
	}
	return result, rows.Err()
}

// where translates a filter tree into a SQL condition on alias "t".
func (m *Model) where(t *table, f *data.Filter, args *[]any) (string, error) {
	if f == nil {
		return "", nil
	}
	if f.IsLeaf() {
		return m.leaf(t, f, args)
	}

	parts := make([]string, 0, len(f.Filters))
	for _, child := range f.Filters {
		s, err := m.where(t, child, args)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, "("+s+")")
		}
	}
	joiner := " OR "
	if f.And {
		joiner = " AND "
	}
	return strings.Join(parts, joiner), nil
}

func (m *Model) leaf(t *table, f *data.Filter, args *[]any) (string, error) {
	nav, prop, isNav := strings.Cut(f.Path, "/")
	if !isNav {
		if !t.has(f.Path) {
			return "", fmt.Errorf("%w: unknown property %q", ErrUnsupportedFilter, f.Path)
		}
		return compare("t."+quote(f.Path), f, args), nil
	}

	if nav != siblingNavigation || !t.has(prop) || !t.has(constants.IsActiveEntityProperty) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFilter, f.Path)
	}

	// The sibling is the row with equal keys in the other draft state.
	conds := []string{fmt.Sprintf("s.%[1]s <> t.%[1]s", quote(constants.IsActiveEntityProperty))}
	for _, key := range t.keys {
		if key.Name == constants.IsActiveEntityProperty {
			continue
		}
		conds = append(conds, fmt.Sprintf("s.%[1]s = t.%[1]s", quote(key.Name)))
	}
	sub := func(cond string) string {
		return fmt.Sprintf("SELECT 1 FROM %s s WHERE %s AND %s", quote(t.name), strings.Join(conds, " AND "), cond)
	}
	column := "s." + quote(prop)

	switch {
	case f.Value == nil && f.Op == data.OpEQ:
		return "NOT EXISTS (" + sub(column+" IS NOT NULL") + ")", nil
	case f.Value == nil:
		return "EXISTS (" + sub(column+" IS NOT NULL") + ")", nil
	case f.Op == data.OpEQ:
		*args = append(*args, toSQL(f.Value))
		return "EXISTS (" + sub(column+" = ?") + ")", nil
	default:
		*args = append(*args, toSQL(f.Value))
		return "NOT EXISTS (" + sub(column+" = ?") + ")", nil
	}
}

func compare(column string, f *data.Filter, args *[]any) string {
	if f.Value == nil {
		if f.Op == data.OpNE {
			return column + " IS NOT NULL"
		}
		return column + " IS NULL"
	}
	*args = append(*args, toSQL(f.Value))
	if f.Op == data.OpNE {
		return column + " <> ?"
	}
	return column + " = ?"
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func affinity(typ string) string {
	switch typ {
	case metadata.TypeInt32, metadata.TypeInt64, metadata.TypeBoolean:
		return "INTEGER"
	case metadata.TypeDecimal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func toSQL(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

func fromSQL(v any, typ string) any {
	switch x := v.(type) {
	case int64:
		if typ == metadata.TypeBoolean {
			return x != 0
		}
	case []byte:
		return string(x)
	}
	return v
}

// parseLiteral converts a key predicate value into a typed value.
func parseLiteral(s string, quoted bool) any {
	if quoted {
		return s
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
