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
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/crudkit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, model := range []interface{}{(*Profile)(nil), (*Item)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(context.Background())
		require.NoError(t, err)
	}
	return db
}

func fileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["files"][0]
}

func TestAttachFiles(t *testing.T) {
	db := openDB(t)
	dir := t.TempDir()
	svc := &ItemService{Service: crudkit.NewServiceWithDB[Item](db), dir: dir}
	ctx := context.Background()

	item := &Item{Name: "lamp", Attributes: map[string]interface{}{"color": "red"}}
	require.NoError(t, svc.Create(ctx, item))

	err := svc.AttachFiles(ctx, item, []*multipart.FileHeader{fileHeader(t, "../manual.txt", "read me")})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "items", "1", "manual.txt"))
	require.NoError(t, err)
	assert.Equal(t, "read me", string(content))

	stored, err := svc.FindOne(ctx, item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "red", stored.Attributes["color"])
	assert.Equal(t, []interface{}{"manual.txt"}, stored.Attributes["files"])
}

func TestRequireHeader(t *testing.T) {
	r := gin.New()
	r.DELETE("/items/:id", requireHeader("X-Admin-Token", "secret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items/1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assertFailedEnvelope(t, w, "Forbidden", "/items/1")

	req := httptest.NewRequest(http.MethodDelete, "/items/1", nil)
	req.Header.Set("X-Admin-Token", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireHeaderDisabledWithoutToken(t *testing.T) {
	r := gin.New()
	r.DELETE("/items/:id", requireHeader("X-Admin-Token", ""), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimitUploadRejectsMalformedMultipart(t *testing.T) {
	r := gin.New()
	r.POST("/items", limitUpload(1<<20), func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertFailedEnvelope(t, w, "Invalid multipart body", "/items")

	req = httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString(`{"name":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func assertFailedEnvelope(t *testing.T, w *httptest.ResponseRecorder, message, path string) {
	t.Helper()
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(w.Code), body["statusCode"])
	assert.Equal(t, message, body["message"])
	assert.Equal(t, path, body["path"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotContains(t, body, "data")
}
