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

package crudkit

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/repository"
	"github.com/tomoncle/crudkit/types"
)

// Service is the per-entity facade handed to controllers. Concrete entity
// services embed it and add hooks such as controller.FileAttacher.
type Service[T any] interface {
	// FindOne returns the entity with the given id, or nil when absent.
	FindOne(ctx context.Context, id int64, relations types.Relations) (*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Page returns one page of entities with its metadata.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Create inserts a new entity and fills its generated columns.
	Create(ctx context.Context, entity *T) error

	// Update writes only the fields present in patch.
	Update(ctx context.Context, id int64, patch map[string]interface{}) error

	// SoftDelete tombstones the entity; models without a soft_delete column
	// are removed.
	SoftDelete(ctx context.Context, id int64) error

	// HardDelete removes the row.
	HardDelete(ctx context.Context, id int64) error

	// Repository exposes the underlying data access for custom queries.
	Repository() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	db   bun.IDB
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a Service backed by the process wide database from
// database.InitDB. The connection is resolved on first use.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// NewServiceWithDB returns a Service bound to db, which may be a transaction.
func NewServiceWithDB[T any](db bun.IDB) Service[T] {
	return &baseServiceImpl[T]{db: db}
}

func (s *baseServiceImpl[T]) Repository() repository.Repository[T] {
	s.once.Do(func() {
		if s.repo != nil {
			return
		}
		db := s.db
		if db == nil {
			db = database.GetDB()
		}
		s.repo = repository.NewRepository[T](db)
	})
	return s.repo
}

func (s *baseServiceImpl[T]) FindOne(ctx context.Context, id int64, relations types.Relations) (*T, error) {
	return s.Repository().FindOne(ctx, id, relations)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.Repository().FindMany(ctx, &repository.Query{Filter: filter})
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.Repository().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, entity *T) error {
	return s.Repository().Create(ctx, entity)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id int64, patch map[string]interface{}) error {
	return s.Repository().Update(ctx, id, patch)
}

func (s *baseServiceImpl[T]) SoftDelete(ctx context.Context, id int64) error {
	return s.Repository().SoftDelete(ctx, id)
}

func (s *baseServiceImpl[T]) HardDelete(ctx context.Context, id int64) error {
	return s.Repository().HardDelete(ctx, id)
}

// InTx runs fn with a Service bound to a single transaction, committing
// when fn returns nil.
func InTx[T any](ctx context.Context, svc Service[T], fn func(ctx context.Context, tx Service[T]) error) error {
	return svc.Repository().RunInTx(ctx, func(ctx context.Context, repo repository.Repository[T]) error {
		tx := &baseServiceImpl[T]{db: repo.DB(), repo: repo}
		return fn(ctx, tx)
	})
}
