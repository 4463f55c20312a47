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
	"encoding/json"
	"reflect"
	"time"

	"github.com/tomoncle/crudkit/errors"
)

var now = time.Now

// Envelope is the uniform response body.
type Envelope struct {
	Success    bool               `json:"success"`
	StatusCode int                `json:"statusCode"`
	Message    string             `json:"message"`
	Errors     []errors.Violation `json:"errors,omitempty"`
	Timestamp  string             `json:"timestamp"`
	Path       string             `json:"path"`
	Data       interface{}        `json:"data"`
}

// MarshalJSON keeps data on successful envelopes, empty collections included,
// and omits it from failed envelopes that carry none.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	if e.Success || e.Data != nil {
		return json.Marshal(plain(e))
	}
	return json.Marshal(struct {
		plain
		Data interface{} `json:"data,omitempty"`
	}{plain: plain(e)})
}

// Projection selects the shape and groups applied to a payload.
type Projection struct {
	Shape   *Shape
	Groups  []string
	IsArray bool
}

// Paged is implemented by paginated results whose items are projected while
// the metadata is passed through.
type Paged interface {
	PageData() []interface{}
	PageMeta() interface{}
}

// Option customises an envelope.
type Option func(*Envelope)

// WithSuccess overrides the success flag, which defaults to true.
func WithSuccess(success bool) Option {
	return func(e *Envelope) { e.Success = success }
}

// WithErrors attaches field violations.
func WithErrors(violations []errors.Violation) Option {
	return func(e *Envelope) { e.Errors = violations }
}

// Wrap shapes payload according to projection and builds the envelope.
func Wrap(payload interface{}, message string, statusCode int, path string, projection *Projection, opts ...Option) (*Envelope, error) {
	data, err := shapePayload(payload, projection)
	if err != nil {
		return nil, err
	}
	env := &Envelope{
		Success:    true,
		StatusCode: statusCode,
		Message:    message,
		Timestamp:  now().UTC().Format(time.RFC3339),
		Path:       path,
		Data:       data,
	}
	for _, opt := range opts {
		opt(env)
	}
	return env, nil
}

// Error builds a failed envelope.
func Error(message string, statusCode int, path string, violations []errors.Violation) *Envelope {
	env, _ := Wrap(nil, message, statusCode, path, nil, WithSuccess(false), WithErrors(violations))
	return env
}

func shapePayload(payload interface{}, projection *Projection) (interface{}, error) {
	if projection == nil || projection.Shape == nil || payload == nil {
		return payload, nil
	}
	shape, groups := projection.Shape, projection.Groups

	if paged, ok := payload.(Paged); ok {
		items, err := projectEach(shape, paged.PageData(), groups)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"data": items, "meta": paged.PageMeta()}, nil
	}

	if m, ok := payload.(map[string]interface{}); ok {
		if data, hasData := m["data"]; hasData {
			if _, hasMeta := m["meta"]; hasMeta && isSequence(data) {
				items, err := projectEach(shape, sequence(data), groups)
				if err != nil {
					return nil, err
				}
				out := make(map[string]interface{}, len(m))
				for k, v := range m {
					out[k] = v
				}
				out["data"] = items
				return out, nil
			}
		}
	}

	if projection.IsArray && isSequence(payload) {
		return projectEach(shape, sequence(payload), groups)
	}
	return Project(shape, payload, groups)
}

func projectEach(shape *Shape, items []interface{}, groups []string) ([]interface{}, error) {
	out := make([]interface{}, len(items))
	for i, item := range items {
		projected, err := Project(shape, item, groups)
		if err != nil {
			return nil, err
		}
		out[i] = projected
	}
	return out, nil
}

func isSequence(v interface{}) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func sequence(v interface{}) []interface{} {
	if items, ok := v.([]interface{}); ok {
		return items
	}
	rv := reflect.ValueOf(v)
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
