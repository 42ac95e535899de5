// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// data.go implements the generated bundle kind: script content produced
// in process rather than read from files. Invalidation rides entirely on
// the content hash — a generated script has no file mtime to observe.
package bundle

import "context"

// Generator produces the script content of a DataBundle for a request
// context.
type Generator func(rc *Context) (string, error)

// DataBundle is a bundle whose script is generated content. Its modified
// time is the first-seen timestamp of the content hash, so regenerating
// identical content never invalidates, and any content change does.
type DataBundle struct {
	Base

	generate Generator
}

var _ Bundle = (*DataBundle)(nil)

// NewDataBundle creates a generated bundle from a generator function.
func NewDataBundle(generate Generator) *DataBundle {
	return &DataBundle{
		Base:     *NewBase("data"),
		generate: generate,
	}
}

// NewStaticDataBundle creates a generated bundle serving fixed content.
func NewStaticDataBundle(content string) *DataBundle {
	return NewDataBundle(func(_ *Context) (string, error) {
		return content, nil
	})
}

// Script returns the generated content.
func (db *DataBundle) Script(_ context.Context, rc *Context) (string, error) {
	return db.generate(rc)
}

// ModifiedHash hashes the generated content. Generation must be cheap for
// this kind — the hash is computed on every modified-time check.
func (db *DataBundle) ModifiedHash(rc *Context) string {
	content, err := db.generate(rc)
	if err != nil {
		return ""
	}
	return ContentHash(content)
}

// ModifiedTime is the first-seen timestamp of the current content hash.
func (db *DataBundle) ModifiedTime(ctx context.Context, rc *Context) (int64, error) {
	return HashMtime(ctx, db.reg, db, rc), nil
}

// DefinitionSummary returns nil: everything that can change this kind's
// output is already covered by the content hash.
func (db *DataBundle) DefinitionSummary(_ *Context) any { return nil }

// KnownEmpty reports true when generation yields no content.
func (db *DataBundle) KnownEmpty(rc *Context) bool {
	content, err := db.generate(rc)
	return err == nil && content == ""
}

// SupportsURLLoading is false: generated content has no standalone file to
// serve, so debug mode falls back to inline delivery.
func (db *DataBundle) SupportsURLLoading() bool { return false }
