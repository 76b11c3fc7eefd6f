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

// Package webhook serves the HTTP endpoint Duplicati posts its job reports
// to. Each report is parsed and sent to the Discord webhook named in the
// query string, and optionally forwarded verbatim to a monitor service.
// The caller always receives an empty JSON object; failures are logged.
package webhook

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lloydws/duplicati-notifications/internal/dedup"
	"github.com/lloydws/duplicati-notifications/internal/models"
	"github.com/lloydws/duplicati-notifications/internal/notify"
	"github.com/lloydws/duplicati-notifications/internal/queue"
	"github.com/lloydws/duplicati-notifications/internal/report"
)

//go:embed all:web
var webFS embed.FS

// Notifier delivers a notification record to a webhook URL.
type Notifier interface {
	Send(ctx context.Context, webhookURL string, rec *notify.Record) error
}

// Forwarder relays the raw report text to a monitor URL.
type Forwarder interface {
	Forward(ctx context.Context, monitorURL, message string) error
}

// Deduper reports whether a report ID is being seen for the first time.
// Forget releases an ID whose delivery failed so a resend is not skipped.
type Deduper interface {
	IsNew(ctx context.Context, reportID string) (bool, error)
	Forget(ctx context.Context, reportID string) error
}

// EventPublisher announces successfully built reports.
type EventPublisher interface {
	PublishReport(ctx context.Context, event *models.ReportEvent) error
}

// HandlerConfig holds the handler's collaborators. Dedup, Publisher and
// Ping are optional.
type HandlerConfig struct {
	Parser    *report.Parser
	Builder   *notify.Builder
	Notifier  Notifier
	Forwarder Forwarder
	Dedup     Deduper
	Publisher EventPublisher

	// Ping checks optional backing services for /healthz.
	Ping func(ctx context.Context) error
}

// Handler processes report posts.
type Handler struct {
	parser    *report.Parser
	builder   *notify.Builder
	notifier  Notifier
	forwarder Forwarder
	dedup     Deduper
	publisher EventPublisher
	ping      func(ctx context.Context) error
	now       func() time.Time
}

// NewHandler creates a report handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		parser:    cfg.Parser,
		builder:   cfg.Builder,
		notifier:  cfg.Notifier,
		forwarder: cfg.Forwarder,
		dedup:     cfg.Dedup,
		publisher: cfg.Publisher,
		ping:      cfg.Ping,
		now:       time.Now,
	}
}

// ServeReport handles POST /report.
//
// Query parameters:
//   - webhook: Discord webhook URL; without it nothing is done
//   - name: job name; without it no notification is sent
//   - duplicatimonitor: optional URL the raw report is forwarded to
//
// The report text is the "message" form field.
func (h *Handler) ServeReport(c *gin.Context) {
	slog.Info("received report request")

	webhookURL := c.Query("webhook")
	if webhookURL == "" {
		slog.Warn("no webhook URL provided")
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	slog.Info("webhook URL present", "webhook", truncate(webhookURL, 20))

	message := c.PostForm("message")

	// Outbound calls should finish even if Duplicati hangs up.
	ctx := context.WithoutCancel(c.Request.Context())

	if name := c.Query("name"); name != "" {
		h.notifyReport(ctx, webhookURL, name, message)
	}

	if monitorURL := c.Query("duplicatimonitor"); monitorURL != "" {
		h.forwardReport(ctx, monitorURL, message)
	}

	c.JSON(http.StatusOK, gin.H{})
}

// notifyReport parses, builds and sends one notification. Errors are logged.
func (h *Handler) notifyReport(ctx context.Context, webhookURL, name, message string) {
	slog.Info("processing backup report", "job", name)

	rep, err := h.parser.Parse(message)
	if err != nil {
		slog.Error("failed to parse report", "job", name, "error", err)
		return
	}

	rec, err := h.builder.Build(rep, name)
	if err != nil {
		slog.Error("failed to build notification", "job", name, "error", err)
		return
	}

	reportID := dedup.ReportID(webhookURL, name, message)
	claimed := false
	if h.dedup != nil {
		isNew, err := h.dedup.IsNew(ctx, reportID)
		if err != nil {
			slog.Warn("dedup check failed, proceeding", "job", name, "error", err)
		} else if !isNew {
			slog.Info("skipping duplicate report", "job", name)
			return
		} else {
			claimed = true
		}
	}

	slog.Info("sending discord webhook", "job", name, "status", rep.Status())
	if err := h.notifier.Send(ctx, webhookURL, rec); err != nil {
		slog.Error("failed to send discord webhook", "job", name, "error", err)
		if claimed {
			if err := h.dedup.Forget(ctx, reportID); err != nil {
				slog.Warn("failed to release dedup key", "job", name, "error", err)
			}
		}
	} else {
		slog.Info("discord webhook sent", "job", name)
	}

	if h.publisher == nil {
		return
	}
	event, err := queue.EventFromReport(rep, name, h.now())
	if err != nil {
		slog.Error("failed to build report event", "job", name, "error", err)
		return
	}
	if err := h.publisher.PublishReport(ctx, event); err != nil {
		slog.Error("failed to publish report event", "job", name, "error", err)
	}
}

// forwardReport relays the raw message to a monitor. Errors are logged.
func (h *Handler) forwardReport(ctx context.Context, monitorURL, message string) {
	slog.Info("forwarding report to monitor")
	if err := h.forwarder.Forward(ctx, monitorURL, message); err != nil {
		slog.Error("failed to forward report to monitor", "error", err)
		return
	}
	slog.Info("forwarded report to monitor")
}

// ServeHealth handles GET /healthz.
func (h *Handler) ServeHealth(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// serveEmbedded reads a file from the embedded FS and writes it with the given content type.
func serveEmbedded(webContent fs.FS, name string, contentType string) gin.HandlerFunc {
	data, err := fs.ReadFile(webContent, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

// requestLogger logs each request once it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Router builds the gin engine with all relay routes. The gin mode is left
// to the caller.
func (h *Handler) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	webContent, _ := fs.Sub(webFS, "web")
	engine.GET("/", serveEmbedded(webContent, "index.html", "text/html; charset=utf-8"))
	engine.GET("/healthz", h.ServeHealth)
	engine.POST("/report", h.ServeReport)

	return engine
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
