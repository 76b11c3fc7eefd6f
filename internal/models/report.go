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

// Package models defines the data structures shared across the relay.
package models

// ReportCounts holds the file counts from a report.
type ReportCounts struct {
	Examined int64 `json:"examined"`
	Added    int64 `json:"added"`
	Modified int64 `json:"modified"`
	Deleted  int64 `json:"deleted"`
}

// ReportSizes holds byte totals from a report.
type ReportSizes struct {
	Examined int64 `json:"examined"`
	Added    int64 `json:"added"`
	Modified int64 `json:"modified"`
}

// ReportEvent summarises one successfully parsed Duplicati report for
// subscribers of the report channel.
type ReportEvent struct {
	ID         string       `json:"id"`
	Job        string       `json:"job"`
	Operation  string       `json:"operation"`
	Status     string       `json:"status"`
	BeginTime  string       `json:"begin_time"`
	Duration   string       `json:"duration"`
	Counts     ReportCounts `json:"counts"`
	Sizes      ReportSizes  `json:"sizes"`
	Errors     []string     `json:"errors,omitempty"`
	ReceivedAt string       `json:"received_at"`
}
