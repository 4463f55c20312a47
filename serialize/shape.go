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

package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field describes one exposed property. A field without groups belongs to
// the default group and is always exposed.
type Field struct {
	Name   string
	Type   string
	Groups []string
	Shape  *Shape
}

// Shape is an explicit, deny-by-default output schema.
type Shape struct {
	Name   string
	Fields []Field
}

// NewShape creates a shape from its field descriptors.
func NewShape(name string, fields ...Field) *Shape {
	return &Shape{Name: name, Fields: fields}
}

// Expose declares a scalar field.
func Expose(name, typ string, groups ...string) Field {
	return Field{Name: name, Type: typ, Groups: groups}
}

// Nested declares a field whose value is projected through shape. Arrays of
// objects are projected element by element.
func Nested(name string, shape *Shape, groups ...string) Field {
	return Field{Name: name, Type: "object", Groups: groups, Shape: shape}
}

func (f Field) exposed(active map[string]struct{}) bool {
	if len(f.Groups) == 0 {
		return true
	}
	for _, g := range f.Groups {
		if _, ok := active[g]; ok {
			return true
		}
	}
	return false
}

// Schema returns the field name to wire type descriptor of the shape.
func (s *Shape) Schema() map[string]interface{} {
	if s == nil {
		return nil
	}
	out := make(map[string]interface{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Shape != nil {
			out[f.Name] = f.Shape.Schema()
			continue
		}
		out[f.Name] = f.Type
	}
	return out
}

// Project converts source to its JSON form and keeps only the fields of
// shape exposed for groups. A nil shape returns source unchanged.
func Project(shape *Shape, source interface{}, groups []string) (interface{}, error) {
	if shape == nil || source == nil {
		return source, nil
	}
	tree, err := toTree(source)
	if err != nil {
		return nil, err
	}
	return shape.project(tree, groupSet(groups)), nil
}

func toTree(source interface{}) (interface{}, error) {
	raw, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", source, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", source, err)
	}
	return tree, nil
}

func groupSet(groups []string) map[string]struct{} {
	set := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	return set
}

func (s *Shape) project(value interface{}, active map[string]struct{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(s.Fields))
		for _, f := range s.Fields {
			if !f.exposed(active) {
				continue
			}
			fv, ok := v[f.Name]
			if !ok {
				continue
			}
			if f.Shape != nil && fv != nil {
				fv = f.Shape.project(fv, active)
			}
			out[f.Name] = fv
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = s.project(item, active)
		}
		return out
	default:
		return value
	}
}
