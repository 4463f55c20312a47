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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -5, DefaultLimit},
		{"within range", 25, 25},
		{"at cap", 100, 100},
		{"just over cap", 101, 100},
		{"far over cap", 100000, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLimit(tt.requested))
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, NewDefaultPageRequest(1, 10).GetOffset())
	assert.Equal(t, 20, NewDefaultPageRequest(3, 10).GetOffset())
	assert.Equal(t, 100, NewDefaultPageRequest(2, 500).GetOffset())
	assert.Equal(t, DefaultPage, NewDefaultPageRequest(0, 10).GetPage())
}

func TestTotalPages(t *testing.T) {
	for total := 0; total <= 250; total++ {
		for _, limit := range []int{1, 3, 10, 100} {
			got := TotalPages(total, limit)
			if total == 0 {
				assert.Zero(t, got)
				continue
			}
			want := total / limit
			if total%limit != 0 {
				want++
			}
			assert.Equal(t, want, got, "total=%d limit=%d", total, limit)
			assert.NotZero(t, got)
		}
	}
}

func TestNewPagination(t *testing.T) {
	type row struct{ ID int }
	p := NewPagination([]*row{{ID: 1}}, 2, 1, 1)
	assert.Len(t, p.Data, 1)
	assert.Equal(t, Meta{Total: 2, Page: 1, Limit: 1, TotalPages: 2}, p.Meta)
	assert.Len(t, p.PageData(), 1)
	assert.Equal(t, p.Meta, p.PageMeta())

	empty := NewDefaultPagination[row](1, 10)
	assert.NotNil(t, empty.Data)
	assert.Zero(t, empty.Meta.TotalPages)
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		raw  string
		want *Sort
	}{
		{"", nil},
		{"   ", nil},
		{":desc", nil},
		{"name", &Sort{Field: "name", Direction: SortAsc}},
		{"name:asc", &Sort{Field: "name", Direction: SortAsc}},
		{"name:DESC", &Sort{Field: "name", Direction: SortDesc}},
		{"createdAt:Desc", &Sort{Field: "createdAt", Direction: SortDesc}},
		{"name:sideways", &Sort{Field: "name", Direction: SortAsc}},
		{"unknown_field:desc", &Sort{Field: "unknown_field", Direction: SortDesc}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSort(tt.raw))
		})
	}
}

func TestSortDirectionEnum(t *testing.T) {
	assert.Equal(t, "DESC", SortDesc.String())
	assert.Equal(t, "asc", SortAsc.Name())
	assert.Equal(t, 1, SortDesc.Number())
	assert.False(t, SortDirection(7).IsValid())
	assert.Equal(t, IllegalValue, SortDirection(7).Number())
}

func TestRelationsAreOrderIndependent(t *testing.T) {
	a := NewRelations("profile", "tags", "profile")
	b := NewRelations("tags", "profile")
	assert.Equal(t, a, b)
	assert.True(t, a.Has("tags"))
	assert.False(t, a.Has("owner"))
	assert.True(t, NewRelations().IsEmpty())
}

func TestQueryFilterIsEmpty(t *testing.T) {
	var nilFilter *QueryFilter
	assert.True(t, nilFilter.IsEmpty())
	assert.True(t, NewFieldFilter(nil).IsEmpty())
	assert.False(t, NewFieldFilter(map[string]interface{}{"name": "A"}).IsEmpty())
	assert.False(t, NewQueryFilter("id > ?", 3).IsEmpty())
}
