// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// msgblob.go reads the message_blob_timestamps table. The blob store
// regenerates localized message blobs out of band; this side only needs to
// know when a blob last changed, or that it does not exist yet.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MessageBlobStore reads message-blob regeneration timestamps.
type MessageBlobStore struct {
	db *sql.DB
}

// NewMessageBlobStore creates a new MessageBlobStore with the given database connection.
func NewMessageBlobStore(db *sql.DB) *MessageBlobStore {
	return &MessageBlobStore{db: db}
}

// BlobMtime returns the timestamp recorded for (module, lang) and whether a
// row exists. A missing row means the blob has not been generated yet.
func (s *MessageBlobStore) BlobMtime(ctx context.Context, module, lang string) (time.Time, bool, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM message_blob_timestamps
		WHERE module = $1 AND lang = $2
	`, module, lang).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query message blob timestamp: %w", err)
	}
	return ts, true, nil
}
