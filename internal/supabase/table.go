package supabase

import (
	"context"

	"github.com/supabase-community/postgrest-go"
	"portfolio-site/internal/backend"
)

type table struct {
	name string
	from func() *postgrest.QueryBuilder
}

func (t *table) Select(ctx context.Context, columns string, order backend.Order) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := t.from().Select(columns, "", false)
	if order.Column != "" {
		query = query.Order(order.Column, &postgrest.OrderOpts{Ascending: order.Ascending})
	}
	data, _, err := query.Execute()
	if err != nil {
		return nil, wrapError("select "+t.name, err)
	}
	return data, nil
}

func (t *table) Insert(ctx context.Context, row interface{}) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := t.from().Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return nil, wrapError("insert "+t.name, err)
	}
	return data, nil
}

// Update asks for the updated rows back so callers can tell a missing id
// from a successful write.
func (t *table) Update(ctx context.Context, row interface{}, idColumn, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := t.from().Update(row, "representation", "").Eq(idColumn, id).Execute()
	if err != nil {
		return nil, wrapError("update "+t.name, err)
	}
	return data, nil
}

func (t *table) Delete(ctx context.Context, idColumn, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := t.from().Delete("representation", "").Eq(idColumn, id).Execute()
	if err != nil {
		return nil, wrapError("delete "+t.name, err)
	}
	return data, nil
}
