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

package controller

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tomoncle/crudkit/errors"
	"github.com/tomoncle/crudkit/types"
	"github.com/tomoncle/crudkit/validation"
)

var reservedQueryKeys = map[string]struct{}{
	"page": {}, "limit": {}, "sort": {}, "include": {},
}

type listQuery struct {
	Page    *int   `form:"page" binding:"omitempty,min=1"`
	Limit   *int   `form:"limit" binding:"omitempty,min=1"`
	Sort    string `form:"sort"`
	Include string `form:"include"`

	filter *types.QueryFilter
}

func (q *listQuery) page() int {
	if q.Page == nil {
		return types.DefaultPage
	}
	return *q.Page
}

func (q *listQuery) limit() int {
	if q.Limit == nil {
		return types.DefaultLimit
	}
	return *q.Limit
}

// bindListQuery splits the query string into paging parameters and
// equality filters. Repeated filter keys keep their first value.
func bindListQuery(ctx *gin.Context) (*listQuery, error) {
	q := &listQuery{}
	if err := ctx.ShouldBindQuery(q); err != nil {
		return nil, bindingError("Invalid query parameters", err)
	}

	fields := make(map[string]interface{})
	for key, values := range ctx.Request.URL.Query() {
		if _, reserved := reservedQueryKeys[key]; reserved || len(values) == 0 {
			continue
		}
		fields[key] = values[0]
	}
	if len(fields) > 0 {
		q.filter = types.NewFieldFilter(fields)
	}
	return q, nil
}

func bindingError(message string, err error) error {
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		violations := make([]errors.Violation, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			violations = append(violations, errors.Violation{
				Field:   strings.ToLower(fe.Field()),
				Rule:    fe.Tag(),
				Message: bindingMessage(fe),
			})
		}
		return errors.NewValidationError(message, violations...)
	}
	return errors.NewValidationError(message, errors.Violation{Message: err.Error()})
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must not be less than " + fe.Param()
	case "max":
		return "must not be greater than " + fe.Param()
	}
	return "is invalid"
}

func parseID(ctx *gin.Context) (int64, error) {
	raw := ctx.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("Validation failed (numeric string is expected)",
			errors.Violation{Field: "id", Rule: "int", Message: fmt.Sprintf("%q is not an integer", raw)})
	}
	return id, nil
}

// readBody decodes a JSON or multipart body into a raw field map. Files are
// only collected for the configured FileField.
func (c *Controller[T]) readBody(ctx *gin.Context) (map[string]interface{}, []*multipart.FileHeader, error) {
	if ctx.ContentType() == binding.MIMEMultipartPOSTForm {
		form, err := ctx.MultipartForm()
		if err != nil {
			return nil, nil, errors.NewValidationError("Invalid multipart body", errors.Violation{Message: err.Error()})
		}
		raw := make(map[string]interface{}, len(form.Value))
		for key, values := range form.Value {
			if len(values) > 0 {
				raw[key] = values[0]
			}
		}
		var files []*multipart.FileHeader
		if c.opts.FileField != "" {
			files = form.File[c.opts.FileField]
		}
		return raw, files, nil
	}

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read request body: %w", err)
	}
	raw := map[string]interface{}{}
	if len(bytes.TrimSpace(body)) == 0 {
		return raw, nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, errors.NewValidationError("Invalid JSON body", errors.Violation{Message: err.Error()})
	}
	return raw, nil, nil
}

// bindEntity validates raw against shape, when given, and maps the result
// onto a new T by JSON field name.
func bindEntity[T any](raw map[string]interface{}, shape validation.Shape) (*T, error) {
	var source interface{} = raw
	if shape != nil {
		decoded, violations, err := shape.Decode(raw)
		if err != nil {
			return nil, err
		}
		if len(violations) > 0 {
			return nil, errors.NewValidationError("Validation failed", violations...)
		}
		source = decoded
	}

	return decodeEntity[T](source)
}

// decodeEntity maps source onto a new T by JSON field name. A value of the
// wrong JSON type becomes a "type" violation.
func decodeEntity[T any](source interface{}) (*T, error) {
	encoded, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}
	entity := new(T)
	if err := json.Unmarshal(encoded, entity); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			return nil, errors.NewValidationError("Validation failed", errors.Violation{
				Field: typeErr.Field, Rule: "type", Message: "must be of type " + typeErr.Type.String(),
			})
		}
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return entity, nil
}

// bindPatch validates raw against shape and keeps only the keys the client
// sent, so omitted fields are left untouched. Without a shape, raw is only
// type checked against T.
func bindPatch[T any](raw map[string]interface{}, shape validation.Shape) (map[string]interface{}, error) {
	if shape == nil {
		if _, err := decodeEntity[T](raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	decoded, violations, err := shape.Decode(raw)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, errors.NewValidationError("Validation failed", violations...)
	}

	encoded, err := json.Marshal(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	normalized := map[string]interface{}{}
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	patch := make(map[string]interface{}, len(raw))
	for key := range raw {
		if v, ok := normalized[key]; ok {
			patch[key] = v
		}
	}
	return patch, nil
}
