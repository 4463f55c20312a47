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
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/crudkit"
	"github.com/tomoncle/crudkit/serialize"
	"github.com/tomoncle/crudkit/types"
	"github.com/tomoncle/crudkit/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testProfile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID  int64  `bun:"id,pk,autoincrement" json:"id"`
	Bio string `bun:"bio" json:"bio"`
}

type testItem struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID          int64        `bun:"id,pk,autoincrement" json:"id"`
	Name        string       `bun:"name,notnull" json:"name"`
	Description string       `bun:"description" json:"description"`
	Secret      string       `bun:"secret" json:"secret"`
	ProfileID   int64        `bun:"profile_id" json:"profileId"`
	Profile     *testProfile `bun:"rel:belongs-to,join:profile_id=id" json:"profile,omitempty"`
	DeletedAt   time.Time    `bun:",soft_delete,nullzero" json:"-"`
}

type createItemInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Secret      string `json:"secret"`
	ProfileID   int64  `json:"profileId"`
}

type updateItemInput struct {
	Name        string `json:"name" validate:"omitempty,min=1"`
	Description string `json:"description"`
	Secret      string `json:"secret"`
}

var (
	profileShape = serialize.NewShape("Profile",
		serialize.Expose("id", "number"),
		serialize.Expose("bio", "string"),
	)
	itemShape = serialize.NewShape("Item",
		serialize.Expose("id", "number"),
		serialize.Expose("name", "string"),
		serialize.Expose("description", "string"),
		serialize.Expose("secret", "string", "admin"),
		serialize.Nested("profile", profileShape),
	)
)

func testOptions() Options {
	return Options{
		EntityName:              "Item",
		CreateShape:             validation.ShapeOf[createItemInput]("CreateItem", validation.Schema{"name": "string"}),
		UpdateShape:             validation.ShapeOf[updateItemInput]("UpdateItem", validation.Schema{"name": "string"}),
		ResponseShape:           itemShape,
		AllowedRelationsFindOne: []string{"profile"},
		AllowedRelationsFindAll: []string{"profile"},
	}
}

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, model := range []interface{}{(*testProfile)(nil), (*testItem)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(context.Background())
		require.NoError(t, err)
	}
	return db
}

// newTestRouter mounts a controller for testItem on a fresh database.
func newTestRouter(t *testing.T, opts Options) (*gin.Engine, *bun.DB) {
	t.Helper()
	db := openTestDB(t)
	r := gin.New()
	New[testItem](crudkit.NewServiceWithDB[testItem](db), opts).Register(r)
	return r, db
}

func routerFor(svc Service[testItem], opts Options) *gin.Engine {
	r := gin.New()
	New[testItem](svc, opts).Register(r)
	return r
}

func seed(t *testing.T, db *bun.DB, items ...*testItem) {
	t.Helper()
	for _, item := range items {
		_, err := db.NewInsert().Model(item).Exec(context.Background())
		require.NoError(t, err)
	}
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, decode(t, w)
}

func doMultipart(t *testing.T, r http.Handler, path string, fields map[string]string, fileField string, files map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, decode(t, w)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return body
}

func dataOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", body["data"])
	return data
}

// countingService records calls and never touches a database.
type countingService struct {
	calls int
}

func (s *countingService) FindOne(context.Context, int64, types.Relations) (*testItem, error) {
	s.calls++
	return nil, nil
}

func (s *countingService) Page(_ context.Context, p *types.PageRequest) (*types.Pagination[testItem], error) {
	s.calls++
	return types.NewDefaultPagination[testItem](p.GetPage(), p.GetLimit()), nil
}

func (s *countingService) Create(context.Context, *testItem) error {
	s.calls++
	return nil
}

func (s *countingService) Update(context.Context, int64, map[string]interface{}) error {
	s.calls++
	return nil
}

func (s *countingService) SoftDelete(context.Context, int64) error {
	s.calls++
	return nil
}

func (s *countingService) HardDelete(context.Context, int64) error {
	s.calls++
	return nil
}

// attachingService stores the names of files handed to AttachFiles.
type attachingService struct {
	crudkit.Service[testItem]
	attached []string
	entityID int64
}

func (s *attachingService) AttachFiles(_ context.Context, entity *testItem, files []*multipart.FileHeader) error {
	s.entityID = entity.ID
	for _, f := range files {
		s.attached = append(s.attached, f.Filename)
	}
	return nil
}
