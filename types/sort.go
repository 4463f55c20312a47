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
	"sort"
	"strings"
)

// Sort is a single "field:direction" ordering. The field is not checked
// against the entity schema.
type Sort struct {
	Field     string
	Direction SortDirection
}

// ParseSort parses "field:direction". It returns nil when no field is given.
func ParseSort(raw string) *Sort {
	field, direction, _ := strings.Cut(strings.TrimSpace(raw), ":")
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	return &Sort{Field: field, Direction: ParseSortDirection(direction)}
}

// String renders the sort back into its "field:direction" form.
func (s *Sort) String() string {
	if s == nil {
		return ""
	}
	return s.Field + ":" + s.Direction.Name()
}

// Relations is the set of relation paths marked for eager fetch. It is kept
// sorted and free of duplicates so that equal sets compare equal.
type Relations []string

// NewRelations builds a directive from names in any order.
func NewRelations(names ...string) Relations {
	seen := make(map[string]struct{}, len(names))
	out := make(Relations, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r Relations) IsEmpty() bool {
	return len(r) == 0
}

func (r Relations) Has(name string) bool {
	i := sort.SearchStrings(r, name)
	return i < len(r) && r[i] == name
}
