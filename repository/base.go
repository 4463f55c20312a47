/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/tomoncle/crudkit/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db      bun.IDB
	columns *columnIndex
}

// NewRepository returns a generic repository backed by the provided Bun DB
// or transaction.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{
		db:      db,
		columns: newColumnIndex(reflect.TypeOf((*T)(nil)).Elem()),
	}
}

func (r *baseRepositoryImpl[T]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) WithTx(tx bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: tx, columns: r.columns}
}

func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repository[T]) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, r.WithTx(tx))
	})
}

func (r *baseRepositoryImpl[T]) FindOne(ctx context.Context, id int64, relations types.Relations) (*T, error) {
	entity := new(T)
	query := r.db.NewSelect().Model(entity).Where("?TableAlias.? = ?", bun.Ident(r.columns.pk), id)
	query = r.applyRelations(query, relations)
	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindMany(ctx context.Context, q *Query) ([]*T, error) {
	entities := make([]*T, 0)
	query := r.db.NewSelect().Model(&entities)
	if q != nil {
		query = r.applyFilter(query, q.Filter)
		query = r.applyRelations(query, q.Relations)
		query = r.applySort(query, q.Sort)
		if q.Offset > 0 {
			query = query.Offset(q.Offset)
		}
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}
	} else {
		query = r.applySort(query, nil)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	query := r.db.NewSelect().Model((*T)(nil))
	return r.applyFilter(query, filter).Count(ctx)
}

// Page counts and fetches with the same filter. The two statements do not
// share a snapshot, so concurrent writes between them can make total and
// data disagree.
func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	var entities []*T
	query := r.db.NewSelect().Model(&entities)
	query = r.applyFilter(query, pageRequest.GetFilter())

	page, limit := pageRequest.GetPage(), pageRequest.GetLimit()
	total, err := query.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return types.NewDefaultPagination[T](page, limit), nil
	}

	query = r.applyRelations(query, pageRequest.GetRelations())
	err = r.applySort(query, pageRequest.GetSort()).
		Offset(pageRequest.GetOffset()).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewPagination(entities, total, page, limit), nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity *T) error {
	_, err := r.db.NewInsert().Model(entity).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, id int64, patch map[string]interface{}) error {
	columns := make([]string, 0, len(patch))
	values := make(map[string]interface{}, len(patch))
	for key, value := range patch {
		col, ok := r.columns.Column(key)
		if !ok || col == r.columns.pk {
			continue
		}
		columns = append(columns, col)
		values[key] = value
	}
	if len(columns) == 0 {
		return nil
	}
	sort.Strings(columns)

	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}
	entity := new(T)
	if err := json.Unmarshal(raw, entity); err != nil {
		return fmt.Errorf("failed to decode patch: %w", err)
	}

	_, err = r.db.NewUpdate().
		Model(entity).
		Column(columns...).
		Where("? = ?", bun.Ident(r.columns.pk), id).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model(new(T)).
		Where("? = ?", bun.Ident(r.columns.pk), id).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) HardDelete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model(new(T)).
		Where("? = ?", bun.Ident(r.columns.pk), id).
		ForceDelete().
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) applyFilter(query *bun.SelectQuery, filter *types.QueryFilter) *bun.SelectQuery {
	if filter.IsEmpty() {
		return query
	}
	keys := make([]string, 0, len(filter.Fields))
	for key := range filter.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		col, _ := r.columns.Column(key)
		query = query.Where("?TableAlias.? = ?", bun.Ident(col), filter.Fields[key])
	}
	if filter.Schema != "" {
		query = query.Where(filter.Schema, filter.Args...)
	}
	return query
}

func (r *baseRepositoryImpl[T]) applyRelations(query *bun.SelectQuery, relations types.Relations) *bun.SelectQuery {
	for _, name := range relations {
		query = query.Relation(RelationPath(name))
	}
	return query
}

// applySort falls back to primary key order so that pages are stable.
func (r *baseRepositoryImpl[T]) applySort(query *bun.SelectQuery, s *types.Sort) *bun.SelectQuery {
	if s == nil {
		return query.OrderExpr("?TableAlias.? ASC", bun.Ident(r.columns.pk))
	}
	col, _ := r.columns.Column(s.Field)
	return query.OrderExpr("?TableAlias.? "+s.Direction.String(), bun.Ident(col))
}
