// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MonitorOAuth2 holds optional client credentials used when forwarding
// reports to a duplicati-monitor instance that requires a bearer token.
type MonitorOAuth2 struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Config holds all configuration for the relay.
type Config struct {
	// Server
	Port     int
	LogLevel slog.Level

	// Notification
	Layout     string
	MaxErrors  int
	AuthorName string
	AuthorURL  string

	// Redis (optional; empty URL disables dedup and event publishing)
	RedisURL      string
	ReportChannel string
	DedupTTL      time.Duration

	// Monitor forwarding
	MonitorOAuth2 MonitorOAuth2
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Server struct {
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`
	Notification struct {
		Layout     string `yaml:"layout"`
		MaxErrors  int    `yaml:"max_errors"`
		AuthorName string `yaml:"author_name"`
		AuthorURL  string `yaml:"author_url"`
	} `yaml:"notification"`
	Redis struct {
		URL      string `yaml:"url"`
		Channel  string `yaml:"channel"`
		DedupTTL string `yaml:"dedup_ttl"`
	} `yaml:"redis"`
	Monitor struct {
		OAuth2 struct {
			TokenURL     string   `yaml:"token_url"`
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			Scopes       []string `yaml:"scopes"`
		} `yaml:"oauth2"`
	} `yaml:"monitor"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables. A missing config file is not an error: every
// setting has a default.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("no config file, using environment and defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	default:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	cfg := &Config{
		Port:          firstPositive(raw.Server.Port, envOrDefaultInt("PORT", 5000)),
		Layout:        firstNonEmpty(raw.Notification.Layout, envOrDefault("NOTIFICATION_LAYOUT", "conditional")),
		MaxErrors:     firstPositive(raw.Notification.MaxErrors, envOrDefaultInt("MAX_ERRORS", 2)),
		AuthorName:    firstNonEmpty(raw.Notification.AuthorName, os.Getenv("AUTHOR_NAME")),
		AuthorURL:     firstNonEmpty(raw.Notification.AuthorURL, os.Getenv("AUTHOR_URL")),
		RedisURL:      firstNonEmpty(raw.Redis.URL, os.Getenv("REDIS_URL")),
		ReportChannel: firstNonEmpty(raw.Redis.Channel, envOrDefault("REPORT_CHANNEL", "duplicati:reports")),
		DedupTTL:      envOrDefaultDuration("DEDUP_TTL", 10*time.Minute),
		MonitorOAuth2: MonitorOAuth2{
			TokenURL:     firstNonEmpty(raw.Monitor.OAuth2.TokenURL, os.Getenv("MONITOR_TOKEN_URL")),
			ClientID:     firstNonEmpty(raw.Monitor.OAuth2.ClientID, os.Getenv("MONITOR_CLIENT_ID")),
			ClientSecret: firstNonEmpty(raw.Monitor.OAuth2.ClientSecret, os.Getenv("MONITOR_CLIENT_SECRET")),
			Scopes:       raw.Monitor.OAuth2.Scopes,
		},
	}

	if raw.Redis.DedupTTL != "" {
		ttl, err := time.ParseDuration(raw.Redis.DedupTTL)
		if err != nil {
			return nil, fmt.Errorf("parse redis.dedup_ttl: %w", err)
		}
		cfg.DedupTTL = ttl
	}

	level := firstNonEmpty(raw.Server.LogLevel, envOrDefault("LOG_LEVEL", "info"))
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
