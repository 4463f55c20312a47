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
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// AbstractDatabaseManager owns one connection pool and everything that
// depends on it: health checks, migrations and query hooks.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	RunMigrations(ctx context.Context) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// HealthStatus is the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"responseTime"`
	ActiveConns   int           `json:"activeConns"`
	IdleConns     int           `json:"idleConns"`
	MaxOpenConns  int           `json:"maxOpenConns"`
	LastError     string        `json:"lastError,omitempty"`
	LastCheckTime time.Time     `json:"lastCheckTime"`
}

// DBStats mirrors database/sql pool statistics.
type DBStats struct {
	MaxOpenConns      int           `json:"maxOpenConns"`
	OpenConns         int           `json:"openConns"`
	InUse             int           `json:"inUse"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"waitCount"`
	WaitDuration      time.Duration `json:"waitDuration"`
	MaxIdleClosed     int64         `json:"maxIdleClosed"`
	MaxIdleTimeClosed int64         `json:"maxIdleTimeClosed"`
	MaxLifetimeClosed int64         `json:"maxLifetimeClosed"`
}

// ConnectionConfig describes how to reach a database and tune its pool.
type ConnectionConfig struct {
	Type                string        `yaml:"type" json:"type"` // mysql, postgres, sqlite
	Host                string        `yaml:"host" json:"host"`
	Port                int           `yaml:"port" json:"port"`
	Username            string        `yaml:"username" json:"username"`
	Password            string        `yaml:"password" json:"-"`
	DBName              string        `yaml:"dbname" json:"dbname"`
	SSLMode             string        `yaml:"sslmode" json:"sslmode"`
	MaxIdleConns        int           `yaml:"max_idle_conns" json:"maxIdleConns"`
	MaxOpenConns        int           `yaml:"max_open_conns" json:"maxOpenConns"`
	ConnMaxLifetime     time.Duration `yaml:"conn_max_lifetime" json:"connMaxLifetime"`
	ConnMaxIdleTime     time.Duration `yaml:"conn_max_idle_time" json:"connMaxIdleTime"`
	ConnectTimeout      time.Duration `yaml:"connect_timeout" json:"connectTimeout"`
	ReadTimeout         time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	EnableReconnect     bool          `yaml:"enable_reconnect" json:"enableReconnect"`
	ReconnectInterval   time.Duration `yaml:"reconnect_interval" json:"reconnectInterval"`
	MaxReconnectTries   int           `yaml:"max_reconnect_tries" json:"maxReconnectTries"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"healthCheckInterval"`
	EnableQueryLog      bool          `yaml:"enable_query_log" json:"enableQueryLog"`
	SlowQueryTime       time.Duration `yaml:"slow_query_time" json:"slowQueryTime"`
}

// Config is the database section of the application config.
type Config struct {
	Connection       ConnectionConfig `yaml:"connection"`
	MigrateOnStartup bool             `yaml:"migrate_on_startup"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:                "sqlite",
		DBName:              "crudkit",
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     time.Minute * 30,
		ConnectTimeout:      time.Second * 10,
		ReadTimeout:         time.Second * 30,
		WriteTimeout:        time.Second * 30,
		EnableReconnect:     true,
		ReconnectInterval:   time.Second * 5,
		MaxReconnectTries:   3,
		HealthCheckInterval: time.Minute * 5,
		SlowQueryTime:       time.Second * 2,
	}
}
