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

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

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
	ProfileID   int64        `bun:"profile_id" json:"profileId"`
	Profile     *testProfile `bun:"rel:belongs-to,join:profile_id=id" json:"profile,omitempty"`
	DeletedAt   time.Time    `bun:",soft_delete,nullzero" json:"-"`
}

type testTag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Label string `bun:"label" json:"label"`
}

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*testProfile)(nil), (*testItem)(nil), (*testTag)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func seedItems(t *testing.T, repo Repository[testItem], names ...string) []*testItem {
	t.Helper()
	out := make([]*testItem, 0, len(names))
	for _, name := range names {
		item := &testItem{Name: name, Description: name + " description"}
		require.NoError(t, repo.Create(context.Background(), item))
		require.NotZero(t, item.ID)
		out = append(out, item)
	}
	return out
}
