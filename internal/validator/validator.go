// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package validator syntax-checks script content before delivery. A file
// with a syntax error would abort execution of the whole combined
// response, so it is replaced by a small script that raises the parse
// error at runtime instead. Verdicts are cached by content hash: each
// distinct script body is parsed at most once per parser version,
// regardless of how many bundles or servers see it.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dop251/goja/parser"
	"golang.org/x/crypto/blake2b"

	"loadstone/internal/cache"
)

// parserCacheVersion is baked into every cache key. Bump it when the
// parser dependency is upgraded so stale verdicts from the old grammar
// are abandoned rather than trusted.
const parserCacheVersion = 1

// Validator checks script syntax with verdicts cached by content hash.
type Validator struct {
	svc cache.Service

	// parse is swappable for tests.
	parse func(name, src string) error
}

// New creates a validator storing verdicts in the given cache service.
func New(svc cache.Service) *Validator {
	return &Validator{
		svc: svc,
		parse: func(name, src string) error {
			_, err := parser.ParseFile(nil, name, src, 0)
			return err
		},
	}
}

// Script returns contents when it parses, or an error-raising substitute
// when it does not. The returned value — valid or substitute — comes from
// the cache when the same content was seen before.
func (v *Validator) Script(ctx context.Context, name, contents string) string {
	key := v.cacheKey(contents)

	if cached, ok := v.svc.Get(ctx, key); ok {
		return cached
	}

	result := contents
	if err := v.parse(name, contents); err != nil {
		slog.Warn("script failed validation", "file", name, "error", err)
		result = errorScript(name, err)
	}

	v.svc.Set(ctx, key, result)
	return result
}

// cacheKey derives the verdict key from the parser version and the
// content digest. The file name is deliberately absent: identical content
// under two names is still the same parse.
func (v *Validator) cacheKey(contents string) string {
	sum := blake2b.Sum256([]byte(contents))
	return fmt.Sprintf("jsparse:v%d:%x", parserCacheVersion, sum)
}

// errorScript builds the substitute served in place of an unparseable
// file. json.Marshal handles the string escaping, so arbitrary parse
// messages cannot themselves break the combined response.
func errorScript(name string, err error) string {
	msg, encodeErr := json.Marshal(fmt.Sprintf("parse error in %s: %v", name, err))
	if encodeErr != nil {
		msg = []byte(`"parse error"`)
	}
	return fmt.Sprintf("throw new Error(%s);", msg)
}
