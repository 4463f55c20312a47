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
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/errors"
	"github.com/tomoncle/crudkit/serialize"
)

func (c *Controller[T]) respond(ctx *gin.Context, status int, message string, payload interface{}, projection *serialize.Projection) {
	env, err := serialize.Wrap(payload, message, status, ctx.Request.URL.Path, projection)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	ctx.JSON(status, env)
}

// fail maps err onto an error envelope. Anything that is not a validation
// or not-found error is reported as a 500 without its details.
func (c *Controller[T]) fail(ctx *gin.Context, err error) {
	path := ctx.Request.URL.Path
	var (
		status  int
		message string
	)
	switch {
	case errors.IsValidation(err):
		status, message = http.StatusBadRequest, validationMessage(err)
	case errors.IsNotFound(err):
		status, message = http.StatusNotFound, err.Error()
	default:
		status, message = http.StatusInternalServerError, "Internal server error"
		fields := logrus.Fields{
			"method": ctx.Request.Method,
			"path":   path,
			"entity": c.opts.entityLabel(),
			"error":  err,
		}
		if isSQL, kind := database.IsSqlError(err); isSQL {
			fields["sql_error"] = kind.String()
		}
		c.logger.WithFields(fields).Error("Request failed")
	}
	_ = ctx.Error(err)
	ctx.AbortWithStatusJSON(status, serialize.Error(message, status, path, errors.Violations(err)))
}

func validationMessage(err error) string {
	var ve *errors.ValidationError
	if stderrors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
