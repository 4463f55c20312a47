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
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/crudkit/errors"
	"github.com/tomoncle/crudkit/relation"
	"github.com/tomoncle/crudkit/serialize"
	"github.com/tomoncle/crudkit/types"
	"github.com/tomoncle/crudkit/utils"
)

// Service is the data access a Controller needs. crudkit.Service satisfies it.
type Service[T any] interface {
	FindOne(ctx context.Context, id int64, relations types.Relations) (*T, error)
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, id int64, patch map[string]interface{}) error
	SoftDelete(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
}

// FileAttacher is implemented by services that store uploaded files for a
// freshly created entity. A returned error fails the create request; the
// entity stays persisted.
type FileAttacher[T any] interface {
	AttachFiles(ctx context.Context, entity *T, files []*multipart.FileHeader) error
}

// Controller serves the CRUD endpoints of entity T.
type Controller[T any] struct {
	svc     Service[T]
	opts    Options
	findOne relation.AllowList
	findAll relation.AllowList
	logger  *logrus.Logger
}

func New[T any](svc Service[T], opts Options) *Controller[T] {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewLogger("CONTROLLER")
	}
	return &Controller[T]{
		svc:     svc,
		opts:    opts,
		findOne: relation.NewAllowList(opts.AllowedRelationsFindOne...),
		findAll: relation.NewAllowList(opts.AllowedRelationsFindAll...),
		logger:  logger,
	}
}

func (c *Controller[T]) BasePath() string {
	return "/" + strings.Trim(c.opts.basePath(), "/")
}

// Register mounts the routes under BasePath and returns the route group.
func (c *Controller[T]) Register(r gin.IRouter) *gin.RouterGroup {
	g := r.Group(c.BasePath())
	if c.opts.ExposeSchema {
		g.GET("/_schema", c.Schema)
	}
	g.POST("", c.chain(OpCreate, c.fileInterceptor(), c.Create)...)
	g.GET("", c.chain(OpFindAll, c.FindAll)...)
	g.GET("/:id", c.chain(OpFindOne, c.FindOne)...)
	g.PATCH("/:id", c.chain(OpUpdate, c.Update)...)
	g.DELETE("/:id", c.chain(OpDelete, c.Delete)...)
	return g
}

func (c *Controller[T]) chain(op Operation, handlers ...gin.HandlerFunc) gin.HandlersChain {
	guards := c.opts.Guards[op]
	out := make(gin.HandlersChain, 0, len(guards)+len(handlers))
	out = append(out, guards...)
	return append(out, handlers...)
}

func (c *Controller[T]) fileInterceptor() gin.HandlerFunc {
	if c.opts.FileInterceptor == nil {
		return passThrough
	}
	return c.opts.FileInterceptor
}

func passThrough(ctx *gin.Context) {
	ctx.Next()
}

func (c *Controller[T]) projection(isArray bool) *serialize.Projection {
	if c.opts.ResponseShape == nil {
		return nil
	}
	return &serialize.Projection{Shape: c.opts.ResponseShape, Groups: c.opts.SerializeGroups, IsArray: isArray}
}

// Create handles POST <base>.
func (c *Controller[T]) Create(ctx *gin.Context) {
	raw, files, err := c.readBody(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	entity, err := bindEntity[T](raw, c.opts.CreateShape)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	reqCtx := ctx.Request.Context()
	if err := c.svc.Create(reqCtx, entity); err != nil {
		c.fail(ctx, err)
		return
	}
	if len(files) > 0 {
		if attacher, ok := c.svc.(FileAttacher[T]); ok {
			if err := attacher.AttachFiles(reqCtx, entity, files); err != nil {
				c.fail(ctx, err)
				return
			}
		}
	}
	c.respond(ctx, http.StatusCreated, c.opts.entityLabel()+" created successfully", entity, c.projection(false))
}

// FindAll handles GET <base>.
func (c *Controller[T]) FindAll(ctx *gin.Context) {
	q, err := bindListQuery(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	relations, err := relation.Resolve(q.Include, c.findAll)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	req := types.NewPageRequest(q.page(), q.limit(), q.filter, types.ParseSort(q.Sort)).WithRelations(relations)
	page, err := c.svc.Page(ctx.Request.Context(), req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.respond(ctx, http.StatusOK, c.opts.entityLabel()+" list retrieved successfully", page, c.projection(true))
}

// FindOne handles GET <base>/:id.
func (c *Controller[T]) FindOne(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	relations, err := relation.Resolve(ctx.Query("include"), c.findOne)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	entity, err := c.svc.FindOne(ctx.Request.Context(), id, relations)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	if entity == nil {
		c.fail(ctx, errors.NewNotFoundError(c.opts.entityLabel(), id))
		return
	}
	c.respond(ctx, http.StatusOK, c.opts.entityLabel()+" retrieved successfully", entity, c.projection(false))
}

// Update handles PATCH <base>/:id.
func (c *Controller[T]) Update(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	raw, _, err := c.readBody(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	patch, err := bindPatch[T](raw, c.opts.UpdateShape)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	reqCtx := ctx.Request.Context()
	existing, err := c.svc.FindOne(reqCtx, id, nil)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	if existing == nil {
		c.fail(ctx, errors.NewNotFoundError(c.opts.entityLabel(), id))
		return
	}
	if err := c.svc.Update(reqCtx, id, patch); err != nil {
		c.fail(ctx, err)
		return
	}
	updated, err := c.svc.FindOne(reqCtx, id, nil)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	if updated == nil {
		c.fail(ctx, errors.NewNotFoundError(c.opts.entityLabel(), id))
		return
	}

	var projection *serialize.Projection
	if c.opts.UpdateProjection == ProjectUpdate {
		projection = c.projection(false)
	}
	c.respond(ctx, http.StatusOK, c.opts.entityLabel()+" updated successfully", updated, projection)
}

// Delete handles DELETE <base>/:id. Deleting an absent or already deleted
// id succeeds.
func (c *Controller[T]) Delete(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	if c.opts.softDelete() {
		err = c.svc.SoftDelete(ctx.Request.Context(), id)
	} else {
		err = c.svc.HardDelete(ctx.Request.Context(), id)
	}
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.respond(ctx, http.StatusOK, c.opts.entityLabel()+" deleted successfully", gin.H{"deleted": true, "id": id}, nil)
}

// Schema handles GET <base>/_schema.
func (c *Controller[T]) Schema(ctx *gin.Context) {
	schema := gin.H{"entity": c.opts.entityLabel()}
	if c.opts.ResponseShape != nil {
		schema["response"] = c.opts.ResponseShape.Schema()
	}
	if c.opts.CreateShape != nil {
		schema["create"] = gin.H{"name": c.opts.CreateShape.Name(), "fields": c.opts.CreateShape.Schema()}
	}
	if c.opts.UpdateShape != nil {
		schema["update"] = gin.H{"name": c.opts.UpdateShape.Name(), "fields": c.opts.UpdateShape.Schema()}
	}
	schema["relations"] = gin.H{
		"findOne": c.findOne.Names(),
		"findAll": c.findAll.Names(),
	}
	c.respond(ctx, http.StatusOK, "Schema retrieved successfully", schema, nil)
}
