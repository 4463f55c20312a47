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
	"net/http"
	"time"

	"github.com/rs/cors"
)

// Config holds the HTTP server settings.
type Config struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
	// BasePath prefixes every registered controller, e.g. "/api".
	BasePath string `yaml:"base_path"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	MaxHeaderBytes int `yaml:"max_header_bytes"`
	// MaxRequestBodySize limits request bodies in bytes. 0 disables the limit.
	MaxRequestBodySize int64 `yaml:"max_request_body_size"`

	CORS CORSConfig `yaml:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:               8080,
		Mode:               "release",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        120 * time.Second,
		MaxHeaderBytes:     1 << 20,
		MaxRequestBodySize: 10 << 20,
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
		},
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.Port == 0 {
		out.Port = def.Port
	}
	if out.Mode == "" {
		out.Mode = def.Mode
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = def.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = def.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = def.IdleTimeout
	}
	if out.MaxHeaderBytes == 0 {
		out.MaxHeaderBytes = def.MaxHeaderBytes
	}
	if len(out.CORS.AllowedOrigins) == 0 {
		out.CORS.AllowedOrigins = def.CORS.AllowedOrigins
	}
	if len(out.CORS.AllowedMethods) == 0 {
		out.CORS.AllowedMethods = def.CORS.AllowedMethods
	}
	if len(out.CORS.AllowedHeaders) == 0 {
		out.CORS.AllowedHeaders = def.CORS.AllowedHeaders
	}
	if len(out.CORS.ExposedHeaders) == 0 {
		out.CORS.ExposedHeaders = def.CORS.ExposedHeaders
	}
	return &out
}

func (c CORSConfig) options() cors.Options {
	return cors.Options{
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods,
		AllowedHeaders:   c.AllowedHeaders,
		ExposedHeaders:   c.ExposedHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
	}
}
