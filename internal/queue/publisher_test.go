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

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/lloydws/duplicati-notifications/internal/models"
	"github.com/lloydws/duplicati-notifications/internal/report"
)

// fakeRedis records PUBLISH calls.
type fakeRedis struct {
	redis.Cmdable
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func sampleReport() *report.Report {
	return &report.Report{
		Fields: report.Fields{
			"ParsedResult":        "Warning",
			"MainOperation":       "Backup",
			"ExaminedFiles":       "100",
			"AddedFiles":          "10",
			"ModifiedFiles":       "2",
			"DeletedFiles":        "1",
			"SizeOfExaminedFiles": "1048576",
			"SizeOfAddedFiles":    "1024",
			"SizeOfModifiedFiles": "512",
		},
		BeginTime: "2024-01-01T00:00:00",
		Duration:  [3]string{"00", "05", "30"},
		Errors:    []string{"/a/b"},
	}
}

// TestEventFromReport verifies the summary fields.
func TestEventFromReport(t *testing.T) {
	received := time.Date(2024, 1, 1, 0, 6, 0, 0, time.UTC)

	ev, err := EventFromReport(sampleReport(), "nightly", received)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &models.ReportEvent{
		Job:        "nightly",
		Operation:  "Backup",
		Status:     "Warning",
		BeginTime:  "2024-01-01T00:00:00",
		Duration:   "5 Mins 30 Secs",
		Counts:     models.ReportCounts{Examined: 100, Added: 10, Modified: 2, Deleted: 1},
		Sizes:      models.ReportSizes{Examined: 1048576, Added: 1024, Modified: 512},
		Errors:     []string{"/a/b"},
		ReceivedAt: "2024-01-01T00:06:00Z",
	}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

// TestEventFromReport_BadCount verifies non-numeric counts are rejected.
func TestEventFromReport_BadCount(t *testing.T) {
	rep := sampleReport()
	rep.Fields["DeletedFiles"] = "?"

	if _, err := EventFromReport(rep, "nightly", time.Now()); !errors.Is(err, report.ErrIncomplete) {
		t.Errorf("err = %v, want ErrIncomplete", err)
	}
}

// TestPublishReport verifies the envelope sent on the channel.
func TestPublishReport(t *testing.T) {
	rdb := &fakeRedis{}
	p := NewPublisher(rdb, "")

	ev := &models.ReportEvent{Job: "nightly", Status: "Success"}
	if err := p.PublishReport(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rdb.channel != DefaultChannel {
		t.Errorf("channel = %q, want %q", rdb.channel, DefaultChannel)
	}
	if ev.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}

	var env struct {
		ID   string             `json:"id"`
		Type string             `json:"type"`
		Data models.ReportEvent `json:"data"`
	}
	if err := json.Unmarshal(rdb.payload, &env); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if env.ID != ev.ID || env.Data.ID != ev.ID {
		t.Errorf("envelope id = %q, data id = %q, want %q", env.ID, env.Data.ID, ev.ID)
	}
	if env.Type != "duplicati.report" {
		t.Errorf("type = %q", env.Type)
	}
	if env.Data.Job != "nightly" {
		t.Errorf("data.job = %q", env.Data.Job)
	}
}

// TestPublishReport_KeepsID verifies a preset ID is not replaced.
func TestPublishReport_KeepsID(t *testing.T) {
	p := NewPublisher(&fakeRedis{}, "custom")
	ev := &models.ReportEvent{ID: "fixed"}

	if err := p.PublishReport(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != "fixed" {
		t.Errorf("ID = %q, want fixed", ev.ID)
	}
}

// TestPublishReport_Error verifies Redis failures are returned.
func TestPublishReport_Error(t *testing.T) {
	p := NewPublisher(&fakeRedis{err: errors.New("down")}, "c")

	if err := p.PublishReport(context.Background(), &models.ReportEvent{}); err == nil {
		t.Error("expected error")
	}
}
