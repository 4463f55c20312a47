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

// Package config loads the application configuration from YAML, with
// ${VAR} expansion and an optional .env file.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/server"
	"github.com/tomoncle/crudkit/utils"
)

const (
	// PathEnv overrides the config file path passed to Load.
	PathEnv = "CRUDKIT_CONFIG"

	DefaultPath = "config.yaml"
)

// LogConfig controls the named loggers of utils.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	// Loggers overrides the level of individual named loggers.
	Loggers map[string]string `yaml:"loggers"`
	// SQLSilent suppresses the per-query log of the database hooks.
	SQLSilent bool `yaml:"sql_silent"`
}

type Config struct {
	Server   server.Config   `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
	Database database.Config `yaml:"database"`
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		Server:   *server.DefaultConfig(),
		Log:      LogConfig{Level: "info", Format: "text"},
		Database: database.Config{Connection: *database.DefaultConnectionConfig(), MigrateOnStartup: true},
	}
}

// Load reads envFiles (".env" when none are given) into the process
// environment without overriding set variables, then parses the YAML file
// at path. A missing .env file is ignored; a missing config file is not.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnv(envFiles...); err != nil {
		return nil, err
	}
	path = utils.EnvDefaultString(PathEnv, path)
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of Default. ${VAR} references are
// replaced with environment values before decoding.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func loadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// ApplyLogging configures the level and format of every named logger.
func (c *Config) ApplyLogging() {
	if c.Log.Format != "" {
		utils.ConfigureLogFormat(c.Log.Format)
	}
	if c.Log.Level != "" {
		utils.ConfigureLogLevel(c.Log.Level)
	}
	for name, level := range c.Log.Loggers {
		utils.NewLogger(name).SetLevel(utils.ParseLogLevel(level))
	}
	database.EnableBunSqlSilent(c.Log.SQLSilent)
}
