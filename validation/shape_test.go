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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createItem struct {
	Name  string  `json:"name" validate:"required,min=2"`
	Price float64 `json:"price" validate:"gte=0"`
	Email string  `json:"email,omitempty" validate:"omitempty,email"`
}

func TestDecodeValid(t *testing.T) {
	shape := ShapeOf[createItem]("CreateItem", nil)

	out, violations, err := shape.Decode(map[string]interface{}{"name": "Widget", "price": 3.5, "extra": true})
	require.NoError(t, err)
	assert.Empty(t, violations)
	require.IsType(t, &createItem{}, out)
	assert.Equal(t, "Widget", out.(*createItem).Name)
	assert.Equal(t, 3.5, out.(*createItem).Price)
}

func TestDecodeCollectsAllViolations(t *testing.T) {
	shape := ShapeOf[createItem]("", Schema{"name": "string"})
	assert.Equal(t, "createItem", shape.Name())
	assert.Equal(t, Schema{"name": "string"}, shape.Schema())

	_, violations, err := shape.Decode(map[string]interface{}{"name": "x", "price": -1, "email": "nope"})
	require.NoError(t, err)
	require.Len(t, violations, 3)

	fields := []string{violations[0].Field, violations[1].Field, violations[2].Field}
	assert.Equal(t, []string{"name", "price", "email"}, fields)
	assert.Equal(t, "min", violations[0].Rule)
	assert.Equal(t, "must be at least 2 characters long", violations[0].Message)
	assert.Equal(t, "gte", violations[1].Rule)
	assert.Equal(t, "email", violations[2].Rule)
}

func TestDecodeMissingRequired(t *testing.T) {
	_, violations, err := ShapeOf[createItem]("CreateItem", nil).Decode(nil)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "name", violations[0].Field)
	assert.Equal(t, "is required", violations[0].Message)
}

func TestDecodeTypeMismatch(t *testing.T) {
	_, violations, err := ShapeOf[createItem]("CreateItem", nil).Decode(map[string]interface{}{"name": 5})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "name", violations[0].Field)
	assert.Equal(t, "type", violations[0].Rule)
}

type createNote struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
	Stars int    `json:"stars" validate:"lte=5"`
}

func TestDecodeTypeMismatchKeepsOtherViolations(t *testing.T) {
	shape := ShapeOf[createNote]("CreateNote", nil)

	_, violations, err := shape.Decode(map[string]interface{}{"title": 5, "stars": 9})
	require.NoError(t, err)
	require.Len(t, violations, 3)
	assert.Equal(t, "title", violations[0].Field)
	assert.Equal(t, "type", violations[0].Rule)
	assert.Equal(t, "body", violations[1].Field)
	assert.Equal(t, "required", violations[1].Rule)
	assert.Equal(t, "stars", violations[2].Field)
	assert.Equal(t, "lte", violations[2].Rule)
}

func TestValidate(t *testing.T) {
	violations, err := Validate(&createItem{Name: "ok"})
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = Validate(&createItem{})
	require.NoError(t, err)
	assert.Len(t, violations, 1)
}
