// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// service.go defines the shared key-value cache contract and its
// Valkey-backed implementation. Values stored here are small — first-seen
// timestamps and validated script bodies — and survive process restarts,
// which is what makes the invalidation scheme stable across deploys.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every key this application writes to Valkey.
const keyPrefix = "loadstone:"

// Service is the key-value contract the invalidation core depends on.
// Keys are opaque strings; a read error is indistinguishable from a miss.
type Service interface {
	// Get retrieves a value. Returns ("", false) on miss.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores a value. Best effort: failures are logged, not returned.
	Set(ctx context.Context, key, value string)
}

// Valkey is the Service implementation backed by a shared Valkey client.
type Valkey struct {
	client *redis.Client
	ttl    time.Duration
}

// NewValkey creates a Valkey-backed cache service. A zero ttl means the
// entries never expire, which is the right default for first-seen
// timestamps: they must outlive any single deploy.
func NewValkey(client *redis.Client, ttl time.Duration) *Valkey {
	return &Valkey{client: client, ttl: ttl}
}

// Get retrieves a value for a key. Returns ("", false) on miss or error.
func (v *Valkey) Get(ctx context.Context, key string) (string, bool) {
	val, err := v.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("cache get error", "key", key, "error", err)
		return "", false
	}
	return val, true
}

// Set stores a value under a key with the configured TTL.
func (v *Valkey) Set(ctx context.Context, key, value string) {
	if err := v.client.Set(ctx, keyPrefix+key, value, v.ttl).Err(); err != nil {
		slog.Warn("cache set error", "key", key, "error", err)
	}
}
