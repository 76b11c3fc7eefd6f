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

// Package notify assembles a parsed backup report into a notification record
// that a delivery channel such as a Discord webhook can send.
package notify

import (
	"fmt"
	"strings"

	"github.com/lloydws/duplicati-notifications/internal/format"
	"github.com/lloydws/duplicati-notifications/internal/report"
	"github.com/lloydws/duplicati-notifications/internal/status"
)

// Layout selects how report statistics are laid out in a Record.
type Layout string

const (
	// LayoutConditional groups changes into one field and hides zero counts.
	LayoutConditional Layout = "conditional"
	// LayoutCompact shows every count and size as its own inline field.
	LayoutCompact Layout = "compact"
)

// ParseLayout validates a layout name. An empty name selects LayoutConditional.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutConditional:
		return LayoutConditional, nil
	case LayoutCompact:
		return LayoutCompact, nil
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

const (
	DefaultAuthorName = "Duplicati Backup Report"
	DefaultAuthorURL  = "https://duplicati-notifications.lloyd.ws/"
)

// Author identifies the notifying service.
type Author struct {
	Name string
	URL  string
}

// Field is a labelled value shown in a Record.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Record is a ready-to-send notification for one report.
type Record struct {
	Username string
	Title    string
	Color    int
	Author   Author
	Fields   []Field
	Footer   string
}

// Builder turns parsed reports into Records. A Builder is safe for
// concurrent use.
type Builder struct {
	Layout Layout
	Author Author
}

// NewBuilder creates a builder, filling in defaults for empty author values.
func NewBuilder(layout Layout, author Author) *Builder {
	if layout == "" {
		layout = LayoutConditional
	}
	if author.Name == "" {
		author.Name = DefaultAuthorName
	}
	if author.URL == "" {
		author.URL = DefaultAuthorURL
	}
	return &Builder{Layout: layout, Author: author}
}

// Build creates the Record for rep under the given job name.
func (b *Builder) Build(rep *report.Report, jobName string) (*Record, error) {
	for _, name := range report.RequiredFields {
		if _, ok := rep.Fields[name]; !ok {
			return nil, fmt.Errorf("%w: missing %s", report.ErrIncomplete, name)
		}
	}

	st, err := rep.Stats()
	if err != nil {
		return nil, err
	}

	result, operation := rep.Status(), rep.Operation()
	pres, err := status.Lookup(result)
	if err != nil {
		return nil, err
	}

	duration := format.FormatDuration(rep.Duration)
	if duration == "" {
		duration = "0 Secs"
	}

	rec := &Record{
		Username: operation + " Notification",
		Title:    fmt.Sprintf("%s %s - %s", pres.Icon, jobName, operation),
		Color:    pres.Color,
		Author:   b.Author,
		Footer:   fmt.Sprintf("%s %s • %s", operation, result, rep.BeginTime),
	}

	switch b.Layout {
	case LayoutCompact:
		rec.Fields = compactFields(st, duration)
	default:
		rec.Fields = conditionalFields(st, rep.BeginTime, duration)
	}

	if text := rep.ErrorText(); text != "" {
		rec.Fields = append(rec.Fields, Field{
			Name:  "⚠️ Errors",
			Value: "```" + text + "```",
		})
	}

	return rec, nil
}

func conditionalFields(st report.Stats, begin, duration string) []Field {
	fields := []Field{{
		Name:  "⏱️ Timing",
		Value: fmt.Sprintf("**Started:** %s\n**Duration:** %s", begin, duration),
	}}

	var changes []string
	if st.Added != 0 {
		changes = append(changes, fmt.Sprintf("📄 **Added:** %s (%s)",
			format.FormatCount(st.Added), format.FormatSize(st.SizeAdded)))
	}
	if st.Modified != 0 {
		changes = append(changes, fmt.Sprintf("📝 **Modified:** %s (%s)",
			format.FormatCount(st.Modified), format.FormatSize(st.SizeModified)))
	}
	if st.Deleted != 0 {
		changes = append(changes, fmt.Sprintf("🗑️ **Deleted:** %s", format.FormatCount(st.Deleted)))
	}

	if len(changes) > 0 {
		total := st.Added + st.Modified + st.Deleted
		fields = append(fields, Field{
			Name: fmt.Sprintf("📊 Changes (%s of %s files)",
				format.FormatCount(total), format.FormatCount(st.Examined)),
			Value: strings.Join(changes, "\n"),
		})
	} else {
		fields = append(fields, Field{
			Name:  "📊 Statistics",
			Value: fmt.Sprintf("No changes in %s files", format.FormatCount(st.Examined)),
		})
	}

	return append(fields, Field{
		Name:  "💾 Total Size",
		Value: format.FormatSize(st.SizeExamined),
	})
}

func compactFields(st report.Stats, duration string) []Field {
	return []Field{
		{Name: "Duration", Value: duration, Inline: true},
		{Name: "Examined", Value: format.FormatCount(st.Examined), Inline: true},
		{Name: "Added", Value: format.FormatCount(st.Added), Inline: true},
		{Name: "Modified", Value: format.FormatCount(st.Modified), Inline: true},
		{Name: "Deleted", Value: format.FormatCount(st.Deleted), Inline: true},
		{Name: "Total Size", Value: format.FormatSize(st.SizeExamined), Inline: true},
		{Name: "Added Size", Value: format.FormatSize(st.SizeAdded), Inline: true},
		{Name: "Modified Size", Value: format.FormatSize(st.SizeModified), Inline: true},
	}
}
