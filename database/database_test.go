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

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,unique"`
}

func memoryConfig() *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = ":memory:"
	cfg.HealthCheckInterval = 0
	return cfg
}

func TestManagerConnectAndMigrate(t *testing.T) {
	RegisterModel((*widget)(nil), 10)

	dm := NewDatabaseManager(memoryConfig())
	ctx := context.Background()
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })

	require.NoError(t, dm.RunMigrations(ctx))
	require.NoError(t, dm.RunMigrations(ctx), "migrations are idempotent")

	db := dm.GetDB()
	_, err := db.NewInsert().Model(&widget{Name: "a"}).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewInsert().Model(&widget{Name: "a"}).Exec(ctx)
	require.Error(t, err)
	is, kind := IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, DuplicateKeyErr, kind)

	applied, err := NewMigrationManager(db, nil).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	assert.Equal(t, "000", applied[0].Version)

	status := dm.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, dm.GetStats().MaxOpenConns)
}

func TestRegisteredMigrationRunsOnce(t *testing.T) {
	calls := 0
	RegisterMigration(MigrationItem{
		Version: "900",
		Name:    "count_calls",
		Up: func(ctx context.Context, db bun.IDB) error {
			calls++
			return nil
		},
	})

	dm := NewDatabaseManager(memoryConfig())
	ctx := context.Background()
	require.NoError(t, dm.Connect(ctx))
	t.Cleanup(func() { _ = dm.Disconnect() })

	require.NoError(t, dm.RunMigrations(ctx))
	require.NoError(t, dm.RunMigrations(ctx))
	assert.Equal(t, 1, calls)
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	_, err := NewDatabaseFactory().CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.Error(t, err)

	_, err = NewDatabaseFactory().CreateFromConfig(nil)
	assert.Error(t, err)
}

func TestFactoryEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := &ConnectionConfig{Type: "postgres", Host: "localhost", Port: 5432}
	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.True(t, cfg.EnableQueryLog)
}

func TestInitDBGlobal(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, &Config{Connection: *memoryConfig(), MigrateOnStartup: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })

	assert.Same(t, db, GetDB())
	assert.True(t, GetHealthStatus(ctx).Healthy)
	require.NoError(t, RunMigrations(ctx))

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.False(t, GetHealthStatus(ctx).Healthy)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", SQLiteDSN(":memory:"))
	assert.Equal(t, "app.db", SQLiteDSN("app"))
	assert.Equal(t, "data/app.sqlite", SQLiteDSN("data/app.sqlite"))
	assert.Equal(t, "file::memory:?cache=shared", SQLiteDSN("file::memory:?cache=shared"))
}

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		err  error
		is   bool
		kind SQLError
	}{
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1054}), true, NoColumnErr},
		{&pq.Error{Code: "23503"}, true, ForeignKeyViolationErr},
		{errors.New("SQL logic error: no such column: bogus (1)"), true, NoColumnErr},
		{errors.New("no such table: items"), true, NoTableErr},
		{errors.New("connection refused"), false, UnknownErr},
	}
	for _, tc := range cases {
		is, kind := IsSqlError(tc.err)
		assert.Equal(t, tc.is, is, tc.err.Error())
		assert.Equal(t, tc.kind, kind, tc.err.Error())
	}
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
}
