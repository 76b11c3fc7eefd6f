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

// Package preview renders a notification record for a terminal, so a report
// layout can be checked without posting to Discord.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lloydws/duplicati-notifications/internal/notify"
	"github.com/lloydws/duplicati-notifications/internal/status"
)

var (
	styleAuthor = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleLabel  = lipgloss.NewStyle().Bold(true)
	styleFooter = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
)

// Renderer writes records to an output stream.
type Renderer struct {
	w io.Writer
}

// NewRenderer returns a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render writes rec as a bordered card whose accent colour is the record colour.
func (r *Renderer) Render(rec *notify.Record) error {
	_, err := fmt.Fprintln(r.w, Card(rec))
	return err
}

// Card lays out rec as a string.
func Card(rec *notify.Record) string {
	accent := lipgloss.Color(status.Presentation{Color: rec.Color}.Hex())
	title := lipgloss.NewStyle().Bold(true).Foreground(accent)

	var b strings.Builder
	b.WriteString(styleAuthor.Render(rec.Author.Name))
	b.WriteString("\n")
	b.WriteString(title.Render(rec.Title))
	b.WriteString("\n")

	for _, f := range rec.Fields {
		b.WriteString("\n")
		b.WriteString(styleLabel.Render(f.Name))
		b.WriteString("\n")
		b.WriteString(stripMarkdown(f.Value))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleFooter.Render(rec.Footer))

	card := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(accent).
		PaddingLeft(1)

	return card.Render(b.String())
}

// stripMarkdown removes the Discord markup a terminal cannot show.
func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "```", "")
	return s
}
