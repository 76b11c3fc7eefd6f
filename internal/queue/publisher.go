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

// Package queue publishes parsed report events on a Redis pub/sub channel so
// that dashboards or other consumers can react to finished backups without
// parsing Duplicati's text format themselves.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lloydws/duplicati-notifications/internal/format"
	"github.com/lloydws/duplicati-notifications/internal/models"
	"github.com/lloydws/duplicati-notifications/internal/report"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "duplicati:reports"

// eventType tags every envelope sent by this service.
const eventType = "duplicati.report"

// Publisher sends report events to a Redis channel.
type Publisher struct {
	rdb     redis.Cmdable
	channel string
}

// NewPublisher creates a publisher targeting the specified channel.
func NewPublisher(rdb redis.Cmdable, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		rdb:     rdb,
		channel: channel,
	}
}

// envelope wraps an event for transport.
type envelope struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	PublishedAt string              `json:"published_at"`
	Data        *models.ReportEvent `json:"data"`
}

// EventFromReport summarises rep for publishing. It expects a report that
// has already been validated by the parser.
func EventFromReport(rep *report.Report, jobName string, receivedAt time.Time) (*models.ReportEvent, error) {
	ev := &models.ReportEvent{
		Job:        jobName,
		Operation:  rep.Operation(),
		Status:     rep.Status(),
		BeginTime:  rep.BeginTime,
		Duration:   format.FormatDuration(rep.Duration),
		Errors:     rep.Errors,
		ReceivedAt: receivedAt.UTC().Format(time.RFC3339),
	}

	st, err := rep.Stats()
	if err != nil {
		return nil, err
	}
	ev.Counts = models.ReportCounts{
		Examined: st.Examined,
		Added:    st.Added,
		Modified: st.Modified,
		Deleted:  st.Deleted,
	}
	ev.Sizes = models.ReportSizes{
		Examined: st.SizeExamined,
		Added:    st.SizeAdded,
		Modified: st.SizeModified,
	}

	return ev, nil
}

// encode assigns an ID to event if it has none and wraps it in an envelope.
func encode(event *models.ReportEvent, now time.Time) ([]byte, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	msg := envelope{
		ID:          event.ID,
		Type:        eventType,
		PublishedAt: now.UTC().Format(time.RFC3339),
		Data:        event,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal report event: %w", err)
	}
	return data, nil
}

// PublishReport serialises event and publishes it on the channel. Events are
// not stored; only currently connected subscribers receive them.
func (p *Publisher) PublishReport(ctx context.Context, event *models.ReportEvent) error {
	data, err := encode(event, time.Now())
	if err != nil {
		return err
	}

	receivers, err := p.rdb.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return fmt.Errorf("redis PUBLISH: %w", err)
	}

	slog.Info("published report event",
		"event_id", event.ID,
		"job", event.Job,
		"status", event.Status,
		"channel", p.channel,
		"receivers", receivers,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
