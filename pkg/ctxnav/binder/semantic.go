package binder

import (
	"context"
	"fmt"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/data"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

// SemanticFilter builds the list filter selecting a record by its semantic
// key values. For draft-enabled entities it only admits drafts and active
// records without a draft:
//
//	OrderNo eq 'A1' and (IsActiveEntity eq false or SiblingEntity/IsActiveEntity eq null)
func SemanticFilter(keys []string, values []any, draft constants.DraftKind) *data.Filter {
	filters := make([]*data.Filter, 0, len(keys)+1)
	for i, key := range keys {
		filters = append(filters, data.Eq(key, values[i]))
	}
	if draft.IsDraftEnabled() {
		filters = append(filters, data.Any(
			data.Eq(constants.IsActiveEntityProperty, false),
			data.Eq(constants.SiblingActiveProperty, nil),
		))
	}
	return data.All(filters...)
}

// ResolveBySemanticKeys queries entitySetPath for the record whose semantic
// keys have the values found in source and returns the first match.
func (b *Binder) ResolveBySemanticKeys(ctx context.Context, entitySetPath string, keys []string, draft constants.DraftKind, source path.KeySource) (data.Context, error) {
	values := make([]any, len(keys))
	for i, key := range keys {
		v, ok := source.KeyValue(key)
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: no value for %s", ErrNotFound, key)
		}
		values[i] = v
	}

	filter := SemanticFilter(keys, values, draft)
	rows, err := b.cfg.Model.BindList(ctx, entitySetPath, filter)
	if err != nil {
		return nil, fmt.Errorf("binder: query %s: %w", entitySetPath, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s where %s", ErrNotFound, entitySetPath, filter)
	}
	return rows[0], nil
}

// HashKeySource reads semantic key values from the key predicate of a hash
// such as "Orders('A1')" or "Orders(OrderNo='A1',Year=2020)". A single value
// is used for every key; multiple values are assigned to keys by position.
func HashKeySource(hash string, keys []string) path.KeySource {
	values := path.Values{}
	_, kvs, err := path.ParseKeyPredicate(path.WithoutQuery(hash))
	if err != nil || len(kvs) == 0 {
		return values
	}
	for i, key := range keys {
		switch {
		case len(kvs) == 1:
			values[key] = kvs[0].Value
		case i < len(kvs):
			values[key] = kvs[i].Value
		}
	}
	return values
}
