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

// Package dedup suppresses repeat notifications for the same report using a
// Redis key with a TTL. Duplicati can post an identical report more than once
// when its own HTTP request is retried.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long a delivered report is remembered.
	DefaultTTL = 10 * time.Minute

	// keyPrefix namespaces dedup keys in Redis.
	keyPrefix = "duplicati:seen:"
)

// Filter tracks which reports have already been notified.
type Filter struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewFilter creates a dedup filter backed by Redis. ttl <= 0 selects DefaultTTL.
func NewFilter(rdb redis.Cmdable, ttl time.Duration) *Filter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Filter{
		rdb: rdb,
		ttl: ttl,
	}
}

// ReportID identifies a report delivery by destination, job and content.
func ReportID(webhookURL, jobName, message string) string {
	h := sha256.New()
	for _, part := range []string{webhookURL, jobName, message} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IsNew returns true if the report ID has NOT been seen within the TTL.
// If true, the ID is marked as seen atomically (SETNX).
func (f *Filter) IsNew(ctx context.Context, reportID string) (bool, error) {
	key := fmt.Sprintf("%s%s", keyPrefix, reportID)

	set, err := f.rdb.SetNX(ctx, key, 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX: %w", err)
	}

	return set, nil
}

// Forget releases a report ID so a later delivery of the same report is
// treated as new. Used when a claimed report could not be delivered.
func (f *Filter) Forget(ctx context.Context, reportID string) error {
	key := fmt.Sprintf("%s%s", keyPrefix, reportID)

	if err := f.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("dedup DEL: %w", err)
	}

	return nil
}
