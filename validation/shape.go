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
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tomoncle/crudkit/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("validate")
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Schema documents the wire type of every field a shape accepts.
type Schema map[string]string

// Shape is a typed input schema. Decode returns the decoded value together
// with all violations; err is reserved for failures unrelated to the input.
type Shape interface {
	Name() string
	Schema() Schema
	Decode(raw map[string]interface{}) (interface{}, []errors.Violation, error)
}

type typedShape[S any] struct {
	name   string
	schema Schema
}

// ShapeOf builds a Shape for the struct type S. Rules are declared with
// `validate` struct tags and violations are reported by json field name.
// schema is the documented field list served by the _schema route.
func ShapeOf[S any](name string, schema Schema) Shape {
	if name == "" {
		name = reflect.TypeOf((*S)(nil)).Elem().Name()
	}
	return &typedShape[S]{name: name, schema: schema}
}

func (s *typedShape[S]) Name() string { return s.name }

func (s *typedShape[S]) Schema() Schema { return s.schema }

func (s *typedShape[S]) Decode(raw map[string]interface{}) (interface{}, []errors.Violation, error) {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	out := new(S)

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s input: %w", s.name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var typeViolation *errors.Violation
	if err := dec.Decode(out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !stderrors.As(err, &typeErr) {
			return nil, nil, fmt.Errorf("failed to decode %s input: %w", s.name, err)
		}
		// the decoder keeps filling the remaining fields after a type error
		typeViolation = &errors.Violation{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
		}
	}

	violations, err := Validate(out)
	if err != nil {
		return nil, nil, err
	}
	if typeViolation == nil {
		return out, violations, nil
	}
	merged := []errors.Violation{*typeViolation}
	for _, v := range violations {
		if v.Field != typeViolation.Field {
			merged = append(merged, v)
		}
	}
	return out, merged, nil
}

// Validate runs the rules of any struct value and returns its violations.
func Validate(value interface{}) ([]errors.Violation, error) {
	err := validate.Struct(value)
	if err == nil {
		return nil, nil
	}
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		return toViolations(fieldErrs), nil
	}
	return nil, err
}

func toViolations(fieldErrs validator.ValidationErrors) []errors.Violation {
	out := make([]errors.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errors.Violation{
			Field:   fieldPath(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email address"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed on %s=%s", fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}
