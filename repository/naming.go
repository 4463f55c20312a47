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
	"reflect"
	"strings"
	"unicode"

	"github.com/uptrace/bun"
)

var baseModelType = reflect.TypeOf(bun.BaseModel{})

// columnIndex maps the JSON names of a model to its SQL column names.
type columnIndex struct {
	byJSON  map[string]string
	byLower map[string]string
	pk      string
}

func newColumnIndex(typ reflect.Type) *columnIndex {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	idx := &columnIndex{
		byJSON:  make(map[string]string),
		byLower: make(map[string]string),
	}
	if typ.Kind() == reflect.Struct {
		idx.collect(typ)
	}
	if idx.pk == "" {
		idx.pk = "id"
	}
	return idx
}

func (idx *columnIndex) collect(typ reflect.Type) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Type == baseModelType {
			continue
		}
		tag := f.Tag.Get("bun")
		if tag == "-" {
			continue
		}
		if f.Anonymous && tag == "" {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				idx.collect(ft)
				continue
			}
		}
		if !f.IsExported() || strings.Contains(tag, "rel:") || strings.Contains(tag, "m2m:") {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = Underscore(f.Name)
		}
		for _, opt := range strings.Split(opts, ",") {
			if opt == "pk" && idx.pk == "" {
				idx.pk = name
			}
		}

		jsonName, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if jsonName == "-" {
			continue
		}
		if jsonName == "" {
			jsonName = f.Name
		}
		idx.byJSON[jsonName] = name
		idx.byLower[strings.ToLower(jsonName)] = name
	}
}

// Column resolves a JSON field name to its column. Unknown names are
// returned unchanged so the database can decide what to do with them.
func (idx *columnIndex) Column(key string) (string, bool) {
	if col, ok := idx.byJSON[key]; ok {
		return col, true
	}
	if col, ok := idx.byLower[strings.ToLower(key)]; ok {
		return col, true
	}
	return key, false
}

// Underscore converts a Go field name to the column name bun derives from it,
// e.g. "OwnerID" -> "owner_id".
func Underscore(s string) string {
	r := make([]byte, 0, len(s)+5)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUpper(c) {
			if i > 0 && i+1 < len(s) && (isLower(s[i-1]) || isLower(s[i+1])) {
				r = append(r, '_', c+32)
			} else {
				r = append(r, c+32)
			}
		} else {
			r = append(r, c)
		}
	}
	return string(r)
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

// RelationPath converts an include token into the bun relation path, e.g.
// "owner_profile.avatar" -> "OwnerProfile.Avatar".
func RelationPath(token string) string {
	segments := strings.Split(token, ".")
	for i, seg := range segments {
		segments[i] = exportedName(seg)
	}
	return strings.Join(segments, ".")
}

func exportedName(s string) string {
	var b strings.Builder
	upperNext := true
	for _, c := range s {
		if c == '_' || c == '-' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(c))
			upperNext = false
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
