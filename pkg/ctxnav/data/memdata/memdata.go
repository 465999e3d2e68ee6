// Package memdata is an in-memory data.Model. It is meant for tests, demos and
// applications whose records are already loaded.
package memdata

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

// Record holds the property values of one row.
type Record map[string]any

// SideEffectRequest is one recorded RequestSideEffects call.
type SideEffectRequest struct {
	Path    string
	Effects []data.SideEffect
}

// BindRequest is one recorded BindContext call.
type BindRequest struct {
	Path   string
	Params data.BindParams
}

type entitySet struct {
	keys []path.Key
	rows []Record
}

// Model is an in-memory data.Model. The zero value is not usable, call New.
type Model struct {
	mu        sync.Mutex
	sets      map[string]*entitySet
	observers map[string][]*Binding
	failures  map[string]error
	binds     []BindRequest
	effects   []SideEffectRequest
	lists     []*data.Filter
}

var _ data.Model = (*Model)(nil)

// New creates an empty Model.
func New() *Model {
	return &Model{
		sets:      make(map[string]*entitySet),
		observers: make(map[string][]*Binding),
		failures:  make(map[string]error),
	}
}

// AddEntitySet declares an entity set and its key properties.
func (m *Model) AddEntitySet(name string, keys ...path.Key) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[name] = &entitySet{keys: keys}
	return m
}

// Insert adds a row to an entity set and returns its context path.
func (m *Model) Insert(set string, rec Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	es, ok := m.sets[set]
	if !ok {
		return "", fmt.Errorf("memdata: unknown entity set %q", set)
	}
	p, ok := buildCanonical(es, set, rec)
	if !ok {
		return "", fmt.Errorf("memdata: %s row lacks key values", set)
	}
	es.rows = append(es.rows, rec)
	return p, nil
}

// Observe attaches bindings as dependents of every context later bound in set.
func (m *Model) Observe(set string, dependents ...*Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers[set] = append(m.observers[set], dependents...)
}

// FailBind makes BindContext fail with err for p. A nil err removes the failure.
func (m *Model) FailBind(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, normalize(p))
		return
	}
	m.failures[normalize(p)] = err
}

// BindRequests returns the recorded BindContext calls.
func (m *Model) BindRequests() []BindRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BindRequest(nil), m.binds...)
}

// SideEffectRequests returns the recorded side-effect refreshes.
func (m *Model) SideEffectRequests() []SideEffectRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SideEffectRequest(nil), m.effects...)
}

// ListFilters returns the filters of all BindList calls.
func (m *Model) ListFilters() []*data.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*data.Filter(nil), m.lists...)
}

// BindContext creates a context binding for p and reads its row.
func (m *Model) BindContext(ctx context.Context, p string, params data.BindParams) (data.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = normalize(p)

	m.mu.Lock()
	m.binds = append(m.binds, BindRequest{Path: p, Params: params})
	failure := m.failures[p]
	m.mu.Unlock()
	if failure != nil {
		return nil, failure
	}

	set, rec, err := m.find(p)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	deps := append([]*Binding(nil), m.observers[set]...)
	m.mu.Unlock()

	b := NewContextBinding(p, deps...)
	c := &Context{model: m, set: set, path: p, rec: rec, binding: b}
	b.contexts = []*Context{c}
	return c, nil
}

// BindList returns the rows of the entity set addressed by p matching filter.
func (m *Model) BindList(ctx context.Context, p string, filter *data.Filter) ([]data.Context, error) {
	list, err := m.List(ctx, p, filter)
	if err != nil {
		return nil, err
	}
	result := make([]data.Context, 0, len(list.contexts))
	for _, c := range list.contexts {
		result = append(result, c)
	}
	return result, nil
}

// List is BindList returning the list binding itself.
func (m *Model) List(ctx context.Context, p string, filter *data.Filter) (*Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set := path.EntitySetOf(p)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists = append(m.lists, filter)

	es, ok := m.sets[set]
	if !ok {
		return nil, fmt.Errorf("memdata: unknown entity set %q", set)
	}

	list := NewListBinding("/"+set, false)
	list.header = &Context{model: m, set: set, path: "/" + set, binding: list}
	for _, rec := range es.rows {
		if !filter.Match(m.resolver(es, rec)) {
			continue
		}
		rowPath, _ := buildCanonical(es, set, rec)
		list.contexts = append(list.contexts, &Context{model: m, set: set, path: rowPath, rec: rec, binding: list})
	}
	return list, nil
}

// Create inserts rec and returns a bound context for it, like a create
// request answered by a server.
func (m *Model) Create(ctx context.Context, set string, rec Record) (data.Context, error) {
	p, err := m.Insert(set, rec)
	if err != nil {
		return nil, err
	}
	return m.BindContext(ctx, p, data.BindParams{})
}

func (m *Model) find(p string) (string, Record, error) {
	segments := strings.Split(path.StripLeadingSlashes(p), "/")
	last := segments[len(segments)-1]
	set, values, err := path.ParseKeyPredicate(last)
	if err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	es, ok := m.sets[set]
	if !ok || len(values) == 0 {
		return "", nil, fmt.Errorf("%w: %s", data.ErrNoSuchEntity, p)
	}
	for _, rec := range es.rows {
		if matchesKeys(es.keys, rec, values) {
			return set, rec, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", data.ErrNoSuchEntity, p)
}

func matchesKeys(keys []path.Key, rec Record, values []path.KeyValue) bool {
	for i, kv := range values {
		name := kv.Name
		if name == "" {
			if i >= len(keys) {
				return false
			}
			name = keys[i].Name
		}
		if !data.Equal(rec[name], kv.Value) {
			return false
		}
	}
	return true
}

// resolver resolves record paths, including the draft sibling navigation.
// The caller holds m.mu.
func (m *Model) resolver(es *entitySet, rec Record) func(string) (any, bool) {
	return func(p string) (any, bool) {
		if nav, prop, ok := strings.Cut(p, "/"); ok && nav == "SiblingEntity" {
			sibling := siblingOf(es, rec)
			if sibling == nil {
				return nil, false
			}
			v, ok := sibling[prop]
			return v, ok
		}
		v, ok := rec[p]
		return v, ok
	}
}

// siblingOf returns the other draft state of rec: the row with equal key
// values and the opposite IsActiveEntity.
func siblingOf(es *entitySet, rec Record) Record {
	active, ok := rec[constants.IsActiveEntityProperty]
	if !ok {
		return nil
	}
	for _, other := range es.rows {
		if data.Equal(other[constants.IsActiveEntityProperty], active) {
			continue
		}
		same := true
		for _, k := range es.keys {
			if k.Name == constants.IsActiveEntityProperty {
				continue
			}
			if !data.Equal(other[k.Name], rec[k.Name]) {
				same = false
				break
			}
		}
		if same {
			return other
		}
	}
	return nil
}

func buildCanonical(es *entitySet, set string, rec Record) (string, bool) {
	p, ok := path.BuildPath(es.keys, set, path.Values(rec))
	return "/" + p, ok
}

func normalize(p string) string {
	return path.Absolute(path.StripLeadingSlashes(p))
}
