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

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/serialize"
	"github.com/tomoncle/crudkit/utils"
)

const HealthPath = "/healthz"

var ginModeOnce sync.Once

// Registrar mounts routes on a router. controller.Controller implements it.
type Registrar interface {
	Register(r gin.IRouter) *gin.RouterGroup
}

// Server hosts controllers behind the shared middleware chain.
type Server struct {
	engine     *gin.Engine
	api        *gin.RouterGroup
	handler    http.Handler
	httpServer *http.Server
	config     *Config
	logger     *logrus.Logger
	mu         sync.RWMutex
	running    bool
}

// New builds a Server from cfg. A nil cfg uses DefaultConfig and a nil
// logger uses the "SERVER" named logger.
func New(cfg *Config, logger *logrus.Logger) *Server {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = utils.NewLogger("SERVER")
	}
	ginModeOnce.Do(func() {
		gin.SetMode(cfg.Mode)
	})

	engine := gin.New()
	engine.Use(RequestID(), Logging(logger, HealthPath), Recovery(logger))
	if cfg.MaxRequestBodySize > 0 {
		engine.Use(MaxBodySize(cfg.MaxRequestBodySize))
	}
	engine.NoRoute(notFound)
	engine.GET(HealthPath, health)

	return &Server{
		engine:  engine,
		api:     engine.Group(cfg.BasePath),
		handler: cors.New(cfg.CORS.options()).Handler(engine),
		config:  cfg,
		logger:  logger,
	}
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the CORS wrapped engine.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Register mounts each registrar under the configured base path.
func (s *Server) Register(registrars ...Registrar) {
	for _, r := range registrars {
		g := r.Register(s.api)
		s.logger.Debugf("Registered routes under %s", g.BasePath())
	}
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
}

// Start serves until Stop is called. It returns nil after a graceful stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.httpServer = &http.Server{
		Addr:           s.Addr(),
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		BaseContext:    func(_ net.Listener) context.Context { return ctx },
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"address":       srv.Addr,
		"read_timeout":  s.config.ReadTimeout,
		"write_timeout": s.config.WriteTimeout,
	}).Info("Starting HTTP server")

	err := srv.ListenAndServe()
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight requests
// until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv, running := s.httpServer, s.running
	s.mu.RUnlock()
	if !running || srv == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func health(c *gin.Context) {
	status := database.GetHealthStatus(c.Request.Context())
	code, message := http.StatusOK, "Service healthy"
	if !status.Healthy {
		code, message = http.StatusServiceUnavailable, "Service unavailable"
	}
	env, _ := serialize.Wrap(status, message, code, c.Request.URL.Path, nil, serialize.WithSuccess(status.Healthy))
	c.JSON(code, env)
}
