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

// Package discord delivers notification records to Discord incoming webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/lloydws/duplicati-notifications/internal/notify"
)

// Sender posts records to webhook URLs supplied per call.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a Sender. A nil client selects http.DefaultClient.
func NewSender(httpClient *http.Client) *Sender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Sender{httpClient: httpClient}
}

// Payload converts a record into the webhook execute body.
func Payload(rec *notify.Record) *discordgo.WebhookParams {
	embed := &discordgo.MessageEmbed{
		Title: rec.Title,
		Color: rec.Color,
		Author: &discordgo.MessageEmbedAuthor{
			Name: rec.Author.Name,
			URL:  rec.Author.URL,
		},
		Footer: &discordgo.MessageEmbedFooter{Text: rec.Footer},
	}
	for _, f := range rec.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	return &discordgo.WebhookParams{
		Username: rec.Username,
		Embeds:   []*discordgo.MessageEmbed{embed},
	}
}

// Send delivers rec to webhookURL. Any non-2xx response is an error.
func (s *Sender) Send(ctx context.Context, webhookURL string, rec *notify.Record) error {
	body, err := json.Marshal(Payload(rec))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	return nil
}
