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

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomoncle/crudkit"
	"github.com/tomoncle/crudkit/config"
	"github.com/tomoncle/crudkit/controller"
	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/serialize"
	"github.com/tomoncle/crudkit/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the YAML configuration file")
	uploadDir := flag.String("uploads", "uploads", "Directory for uploaded item files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ApplyLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := database.InitDB(ctx, &cfg.Database); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			log.WithError(err).Error("Failed to close database")
		}
	}()

	srv := server.New(&cfg.Server, nil)
	srv.Register(
		controller.New[Profile](crudkit.NewService[Profile](), controller.Options{
			EntityName:      "Profile",
			CreateShape:     createProfileShape,
			UpdateShape:     updateProfileShape,
			ResponseShape:   profileResponse,
			SerializeGroups: []string{"detail"},
			SoftDelete:      controller.Bool(false),
			ExposeSchema:    true,
		}),
		controller.New[Item](NewItemService(*uploadDir), controller.Options{
			EntityName:              "Item",
			CreateShape:             createItemShape,
			UpdateShape:             updateItemShape,
			ResponseShape:           itemResponse,
			AllowedRelationsFindOne: []string{"profile"},
			AllowedRelationsFindAll: []string{"profile"},
			Guards: controller.Guards{
				controller.OpDelete: {requireHeader("X-Admin-Token", os.Getenv("CRUDKIT_ADMIN_TOKEN"))},
			},
			FileField:       "files",
			FileInterceptor: limitUpload(32 << 20),
			ExposeSchema:    true,
		}),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("Server stopped unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Server error")
	}
}

// requireHeader rejects requests whose header does not carry token. An
// empty token disables the check.
func requireHeader(name, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" && c.GetHeader(name) != token {
			c.AbortWithStatusJSON(http.StatusForbidden,
				serialize.Error("Forbidden", http.StatusForbidden, c.Request.URL.Path, nil))
			return
		}
		c.Next()
	}
}

// limitUpload parses multipart bodies up to maxMemory bytes in memory.
func limitUpload(maxMemory int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() == gin.MIMEMultipartPOSTForm {
			if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest,
					serialize.Error("Invalid multipart body", http.StatusBadRequest, c.Request.URL.Path, nil))
				return
			}
		}
		c.Next()
	}
}
