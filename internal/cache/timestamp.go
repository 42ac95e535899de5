// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// timestamp.go implements the first-seen timestamp register: the first
// time a given key is observed, the current time is recorded under it and
// that value is returned on every subsequent call. The same content hash
// therefore always maps to the same timestamp, so toggling content back
// and forth, or several servers observing the same content during a
// rolling deploy, never produces spurious invalidation.
package cache

import (
	"context"
	"strconv"
	"time"
)

// Timestamps assigns stable first-seen timestamps to opaque keys, backed
// by the shared cache Service.
type Timestamps struct {
	svc Service
	now func() time.Time
}

// NewTimestamps creates a timestamp register on top of the given Service.
func NewTimestamps(svc Service) *Timestamps {
	return &Timestamps{svc: svc, now: time.Now}
}

// First returns the timestamp recorded the first time this (namespace, key)
// pair was seen. If no valid entry exists the current time is stored and
// returned. Two processes racing on the same key both compute the same
// logical "now"; either write winning is a correct outcome, so no lock is
// taken.
func (t *Timestamps) First(ctx context.Context, namespace, key string) int64 {
	cacheKey := "ts:" + namespace + ":" + key

	if val, ok := t.svc.Get(ctx, cacheKey); ok {
		if ts, err := strconv.ParseInt(val, 10, 64); err == nil && ts > 0 {
			return ts
		}
		// A corrupt or non-positive entry is overwritten below.
	}

	now := t.now().Unix()
	t.svc.Set(ctx, cacheKey, strconv.FormatInt(now, 10))
	return now
}
