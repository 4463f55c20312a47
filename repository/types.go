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

	"github.com/tomoncle/crudkit/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Query is a find-many request forwarded to the database as is.
type Query struct {
	Filter    *types.QueryFilter
	Sort      *types.Sort
	Relations types.Relations
	Offset    int
	Limit     int
}

// ReadRepository defines lookups for a generic entity type.
type ReadRepository[T any] interface {
	// FindOne returns the entity with the given id, or nil when there is none.
	FindOne(ctx context.Context, id int64, relations types.Relations) (*T, error)

	FindMany(ctx context.Context, query *Query) ([]*T, error)

	Count(ctx context.Context, filter *types.QueryFilter) (int, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// WriteRepository defines mutations for a generic entity type.
type WriteRepository[T any] interface {
	Create(ctx context.Context, entity *T) error

	// Update writes only the columns named by the patch keys.
	Update(ctx context.Context, id int64, patch map[string]interface{}) error

	// SoftDelete stamps the soft_delete column; models without one are removed.
	SoftDelete(ctx context.Context, id int64) error

	HardDelete(ctx context.Context, id int64) error
}

// TransactionRepository runs work inside a single database transaction.
type TransactionRepository[T any] interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repository[T]) error) error
	WithTx(tx bun.IDB) Repository[T]
}

// Repository combines lookups, pagination, mutations and transactions and
// exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	ReadRepository[T]
	PageQueryRepository[T]
	WriteRepository[T]
	TransactionRepository[T]
	DB() bun.IDB
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
