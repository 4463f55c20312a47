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

package relation

import (
	"strings"

	"github.com/tomoncle/crudkit/errors"
	"github.com/tomoncle/crudkit/types"
)

// AllowList is the set of relation names an endpoint accepts.
type AllowList struct {
	names map[string]struct{}
	order []string
}

// NewAllowList builds an allow-list; the declaration order is kept for error messages.
func NewAllowList(names ...string) AllowList {
	a := AllowList{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := a.names[name]; ok {
			continue
		}
		a.names[name] = struct{}{}
		a.order = append(a.order, name)
	}
	return a
}

func (a AllowList) Contains(name string) bool {
	_, ok := a.names[name]
	return ok
}

// Names returns the allowed names in declaration order.
func (a AllowList) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Split breaks a comma separated include parameter into its non-empty tokens.
func Split(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Resolve validates a comma separated list of relation names against the
// allow-list and returns the eager fetch directive. Every rejected token is
// reported at once.
func Resolve(raw string, allow AllowList) (types.Relations, error) {
	tokens := Split(raw)
	if len(tokens) == 0 {
		return types.Relations{}, nil
	}

	var invalid []string
	for _, token := range tokens {
		if !allow.Contains(token) {
			invalid = append(invalid, token)
		}
	}
	if len(invalid) > 0 {
		return nil, errors.NewRelationError(types.NewRelations(invalid...), allow.Names())
	}
	return types.NewRelations(tokens...), nil
}
