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

package types

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// QueryFilter describes equality filters keyed by column name plus an optional
// raw WHERE clause schema and its argument values.
type QueryFilter struct {
	Fields map[string]interface{}
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{Schema: schema, Args: args}
}

// NewFieldFilter creates a query filter matching every column to its value.
func NewFieldFilter(fields map[string]interface{}) *QueryFilter {
	return &QueryFilter{Fields: fields}
}

// IsEmpty reports whether the filter restricts nothing.
func (f *QueryFilter) IsEmpty() bool {
	return f == nil || (len(f.Fields) == 0 && f.Schema == "")
}

// ClampLimit applies the default and the server side cap to a requested limit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// PageRequest describes pagination, optional filter, ordering and relations.
type PageRequest struct {
	page      int
	limit     int
	filter    *QueryFilter
	sort      *Sort
	relations Relations
}

func (p *PageRequest) GetLimit() int {
	return ClampLimit(p.limit)
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return DefaultPage
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetLimit()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetSort() *Sort {
	return p.sort
}

func (p *PageRequest) GetRelations() Relations {
	return p.relations
}

// WithRelations returns the request with the given relations marked for eager fetch.
func (p *PageRequest) WithRelations(relations Relations) *PageRequest {
	p.relations = relations
	return p
}

// NewPageRequest constructs a PageRequest with filter and sort settings.
func NewPageRequest(page int, limit int, filter *QueryFilter, sort *Sort) *PageRequest {
	return &PageRequest{page: page, limit: limit, filter: filter, sort: sort}
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, limit int) *PageRequest {
	return NewPageRequest(page, limit, nil, nil)
}

// Meta is the pagination metadata returned next to a page of items.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// TotalPages returns ceil(total/limit), and 0 when there is nothing to page.
func TotalPages(total int, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Data []*T `json:"data"`
	Meta Meta `json:"meta"`
}

// NewPagination builds a page, recomputing the page count from total and limit.
func NewPagination[T any](items []*T, total int, page int, limit int) *Pagination[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &Pagination[T]{
		Data: items,
		Meta: Meta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: TotalPages(total, limit),
		},
	}
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, limit int) *Pagination[T] {
	return NewPagination[T](nil, 0, page, limit)
}

// PageData returns the items as untyped values for response shaping.
func (p *Pagination[T]) PageData() []interface{} {
	out := make([]interface{}, len(p.Data))
	for i, item := range p.Data {
		out[i] = item
	}
	return out
}

// PageMeta returns the metadata untouched.
func (p *Pagination[T]) PageMeta() interface{} {
	return p.Meta
}
