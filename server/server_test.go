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
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg *Config) (*Server, *bytes.Buffer) {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Mode = gin.TestMode
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return New(cfg, logger), &buf
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type pingRoutes struct{}

func (pingRoutes) Register(r gin.IRouter) *gin.RouterGroup {
	g := r.Group("/ping")
	g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	g.GET("/panic", func(c *gin.Context) { panic("boom") })
	return g
}

func TestRequestID(t *testing.T) {
	s, logs := newTestServer(t, nil)
	s.Register(pingRoutes{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Contains(t, logs.String(), generated)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = serve(s, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
}

func TestAccessLogFields(t *testing.T) {
	s, logs := newTestServer(t, nil)
	s.Register(pingRoutes{})

	serve(s, httptest.NewRequest(http.MethodGet, "/ping", nil))

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
	assert.Equal(t, "Request completed", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, float64(200), entry["status_code"])
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	s, logs := newTestServer(t, nil)
	s.Register(pingRoutes{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/ping/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	out := body(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Internal server error", out["message"])
	assert.Equal(t, "/ping/panic", out["path"])
	assert.Contains(t, logs.String(), "Panic recovered")
}

func TestBasePathAndNoRoute(t *testing.T) {
	s, _ := newTestServer(t, &Config{BasePath: "/api"})
	s.Register(pingRoutes{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Cannot GET /ping", body(t, w)["message"])
}

func TestHealthWithoutDatabase(t *testing.T) {
	s, logs := newTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	out := body(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Database not initialized", out["data"].(map[string]interface{})["lastError"])
	assert.Empty(t, logs.String(), "health checks are not access logged")
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.Register(pingRoutes{})

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := serve(s, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestMaxBodySize(t *testing.T) {
	s, _ := newTestServer(t, &Config{MaxRequestBodySize: 4})
	s.Engine().POST("/echo", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := serve(s, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("ok")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDefaults(t *testing.T) {
	cfg := (&Config{Port: 9000}).withDefaults()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, DefaultConfig(), (*Config)(nil).withDefaults())
}

func TestStartStop(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	s, _ := newTestServer(t, &Config{Address: "127.0.0.1", Port: port})
	require.NoError(t, s.Stop(context.Background()), "stopping an idle server is a no-op")

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", s.Addr())
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, s.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, <-done)
	assert.False(t, s.IsRunning())
}
