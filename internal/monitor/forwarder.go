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

// Package monitor forwards the raw Duplicati report to a duplicati-monitor
// style collector, unchanged, as form data.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Config holds optional client credentials for the collector.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether enough is configured to request tokens.
func (c OAuth2Config) Enabled() bool {
	return c.TokenURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Forwarder posts raw reports to collector URLs supplied per call.
type Forwarder struct {
	httpClient *http.Client
}

// NewForwarder creates a Forwarder using httpClient. A nil client selects
// http.DefaultClient.
func NewForwarder(httpClient *http.Client) *Forwarder {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Forwarder{httpClient: httpClient}
}

// NewOAuth2Forwarder creates a Forwarder whose requests carry a bearer token
// obtained with the client credentials grant.
func NewOAuth2Forwarder(ctx context.Context, cfg OAuth2Config) *Forwarder {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	return &Forwarder{httpClient: creds.Client(ctx)}
}

// Forward posts message as the "message" form field to monitorURL.
func (f *Forwarder) Forward(ctx context.Context, monitorURL, message string) error {
	form := url.Values{"message": {message}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, monitorURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forward report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("monitor returned HTTP %d", resp.StatusCode)
	}
	return nil
}
