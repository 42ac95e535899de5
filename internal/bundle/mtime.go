// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// mtime.go holds the helpers bundle kinds compose their ModifiedTime
// from: failure-tolerant file stats and the two first-seen timestamp
// derivations (content hash and definition summary). The two derivations
// write to distinct cache namespaces so their keys cannot collide.
package bundle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"

	"golang.org/x/crypto/blake2b"
)

const (
	hashMtimeNamespace = "hashmtime"
	defMtimeNamespace  = "defmtime"
)

// SafeFileMtime returns the unix modification time of a file, or 1 for
// any stat failure. A missing file is "oldest possible", not an error.
func SafeFileMtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 1
	}
	return info.ModTime().Unix()
}

// HashMtime maps the bundle's content hash to its first-seen timestamp.
// The same hash value always yields the same timestamp, so content that
// toggles back and forth, or is observed independently by several servers
// during a rolling deploy, never bumps the modification time. Returns 1
// when the kind exposes no hash.
func HashMtime(ctx context.Context, reg TimestampRegister, b Bundle, rc *Context) int64 {
	hash := b.ModifiedHash(rc)
	if hash == "" || reg == nil {
		return 1
	}
	return reg.First(ctx, hashMtimeNamespace, b.Name()+"|"+hash)
}

// DefinitionMtime maps a digest of the bundle's definition summary to its
// first-seen timestamp, so declaration-level changes (dependency order, a
// renamed group) invalidate independently of file content. Returns 1 when
// the kind exposes no summary.
func DefinitionMtime(ctx context.Context, reg TimestampRegister, b Bundle, rc *Context) int64 {
	summary := b.DefinitionSummary(rc)
	if summary == nil || reg == nil {
		return 1
	}

	// encoding/json sorts map keys, which makes the serialization
	// deterministic as long as summaries hold only plain maps, slices,
	// and scalars.
	encoded, err := json.Marshal(summary)
	if err != nil {
		slog.Warn("definition summary not serializable", "module", b.Name(), "error", err)
		return 1
	}

	sum := blake2b.Sum256(encoded)
	digest := hex.EncodeToString(sum[:])
	return reg.First(ctx, defMtimeNamespace, b.Name()+"|"+digest)
}

// ContentHash returns the hex blake2b digest of content, the hash form
// used by ModifiedHash implementations and the script validator.
func ContentHash(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
