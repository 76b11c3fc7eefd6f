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

// Duplicati Notifications — Relay Service
//
// Entry point for the report relay. It:
//  1. Loads configuration from config.yaml and the environment
//  2. Optionally connects to Redis for duplicate suppression and report events
//  3. Serves the report endpoint Duplicati posts job results to
//  4. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lloydws/duplicati-notifications/internal/config"
	"github.com/lloydws/duplicati-notifications/internal/dedup"
	"github.com/lloydws/duplicati-notifications/internal/discord"
	"github.com/lloydws/duplicati-notifications/internal/monitor"
	"github.com/lloydws/duplicati-notifications/internal/notify"
	"github.com/lloydws/duplicati-notifications/internal/queue"
	"github.com/lloydws/duplicati-notifications/internal/report"
	"github.com/lloydws/duplicati-notifications/internal/webhook"
)

func main() {
	// Structured JSON logging; level is raised once config is loaded.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	slog.Info("starting Duplicati notification service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel)

	layout, err := notify.ParseLayout(cfg.Layout)
	if err != nil {
		slog.Error("invalid notification layout", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"port", cfg.Port,
		"layout", layout,
		"max_errors", cfg.MaxErrors,
		"redis", cfg.RedisURL != "",
		"monitor_oauth2", cfg.MonitorOAuth2.TokenURL != "",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handlerCfg := webhook.HandlerConfig{
		Parser:   report.NewParser(cfg.MaxErrors),
		Builder:  notify.NewBuilder(layout, notify.Author{Name: cfg.AuthorName, URL: cfg.AuthorURL}),
		Notifier: discord.NewSender(nil),
	}

	// --- Monitor Forwarder ---
	oauthCfg := monitor.OAuth2Config{
		TokenURL:     cfg.MonitorOAuth2.TokenURL,
		ClientID:     cfg.MonitorOAuth2.ClientID,
		ClientSecret: cfg.MonitorOAuth2.ClientSecret,
		Scopes:       cfg.MonitorOAuth2.Scopes,
	}
	if oauthCfg.Enabled() {
		handlerCfg.Forwarder = monitor.NewOAuth2Forwarder(ctx, oauthCfg)
	} else {
		handlerCfg.Forwarder = monitor.NewForwarder(nil)
	}

	// --- Connect to Redis (optional) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)

		publisher := queue.NewPublisher(rdb, cfg.ReportChannel)
		if err := publisher.Ping(ctx); err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to Redis", "channel", cfg.ReportChannel, "dedup_ttl", cfg.DedupTTL)

		handlerCfg.Publisher = publisher
		handlerCfg.Dedup = dedup.NewFilter(rdb, cfg.DedupTTL)
		handlerCfg.Ping = publisher.Ping
	}

	handler := webhook.NewHandler(handlerCfg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	idle := make(chan struct{})
	go func() {
		defer close(idle)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		if rdb != nil {
			rdb.Close()
		}
	}()

	slog.Info("relay listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-idle
	slog.Info("relay stopped")
}
