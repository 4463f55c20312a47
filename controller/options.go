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
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/crudkit/serialize"
	"github.com/tomoncle/crudkit/validation"
)

// Operation names one of the generated endpoints.
type Operation string

const (
	OpCreate  Operation = "create"
	OpFindAll Operation = "findAll"
	OpFindOne Operation = "findOne"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
)

// Guards maps an operation to the handlers that run, in order, before it.
// A guard rejects a request by aborting the gin context.
type Guards map[Operation]gin.HandlersChain

// UpdateProjection selects how the update response is shaped.
type UpdateProjection int

const (
	// ProjectUpdate applies ResponseShape and SerializeGroups, like every
	// other read of the entity.
	ProjectUpdate UpdateProjection = iota
	// RawUpdate returns the re-fetched row without projection.
	RawUpdate
)

// Options configures the routes generated for one entity.
type Options struct {
	// EntityName is used in messages and, lower-cased and suffixed with
	// "s", as base path.
	EntityName string
	BasePath   string

	CreateShape   validation.Shape
	UpdateShape   validation.Shape
	ResponseShape *serialize.Shape

	AllowedRelationsFindOne []string
	AllowedRelationsFindAll []string

	Guards Guards

	// FileInterceptor runs on create after the guards, typically to limit
	// or pre-parse multipart uploads.
	FileInterceptor gin.HandlerFunc
	// FileField is the multipart field whose files are handed to the
	// service's FileAttacher after the entity is created.
	FileField string

	SerializeGroups []string

	// SoftDelete defaults to true when nil.
	SoftDelete *bool

	UpdateProjection UpdateProjection

	// ExposeSchema registers GET <base>/_schema describing the shapes.
	ExposeSchema bool

	Logger *logrus.Logger
}

// Bool returns a pointer to b, for optional Options fields.
func Bool(b bool) *bool {
	return &b
}

func (o Options) softDelete() bool {
	return o.SoftDelete == nil || *o.SoftDelete
}

func (o Options) basePath() string {
	if o.BasePath != "" {
		return o.BasePath
	}
	return strings.ToLower(o.EntityName) + "s"
}

func (o Options) entityLabel() string {
	if o.EntityName == "" {
		return "Entity"
	}
	return o.EntityName
}
