// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package bundle is the core of the asset delivery subsystem. A Bundle is
// a named, origin-tagged collection of client-deliverable resources
// (scripts, styles, templates, localized messages). The package computes a
// cheap modification time per bundle — the cache-busting signal — by
// combining file mtimes, message-blob timestamps, and first-seen
// timestamps derived from content hashes and definition summaries.
package bundle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DependencySource fetches the recorded per-skin file-dependency list for
// a module. The persistent store implements this.
type DependencySource interface {
	FileDependencies(ctx context.Context, module, skin string) ([]string, error)
}

// MessageBlobSource fetches the regeneration timestamp of the localized
// message blob for a (module, language) pair. A false second return means
// no blob has been generated yet.
type MessageBlobSource interface {
	BlobMtime(ctx context.Context, module, lang string) (time.Time, bool, error)
}

// TimestampRegister assigns stable first-seen timestamps to opaque keys.
// cache.Timestamps implements this over the shared cache service.
type TimestampRegister interface {
	First(ctx context.Context, namespace, key string) int64
}

// ScriptValidator checks script syntax before delivery, returning either
// the original content or an error-raising substitute.
type ScriptValidator interface {
	Script(ctx context.Context, name, contents string) string
}

// Bundle is the full content-and-metadata contract of one registered
// bundle. Base provides defaults for everything; concrete kinds override
// the operations relevant to their storage strategy.
type Bundle interface {
	Name() string
	SetName(name string)
	Origin() Origin
	SetOrigin(o Origin)
	Targets() []string
	Source() string
	Messages() []string
	Group() string
	Position() string
	LoaderScript() string
	SkipFunction() string
	Raw() bool
	SupportsURLLoading() bool

	Script(ctx context.Context, rc *Context) (string, error)
	Styles(ctx context.Context, rc *Context) (map[string]string, error)
	Templates(ctx context.Context, rc *Context) (map[string]string, error)
	Dependencies(rc *Context) []string
	KnownEmpty(rc *Context) bool

	ModifiedTime(ctx context.Context, rc *Context) (int64, error)
	ModifiedHash(rc *Context) string
	DefinitionSummary(rc *Context) any

	FileDependencies(ctx context.Context, skin string) ([]string, error)
	SetFileDependencies(skin string, deps []string)
	MsgBlobMtime(ctx context.Context, lang string) (int64, error)
	SetMsgBlobMtime(lang string, mtime int64)
}

// Base carries the identity, trust, and memo state shared by every bundle
// kind, and supplies the default no-op behavior for the rest of the
// contract. Concrete kinds embed it and override what they need.
type Base struct {
	name     string
	kind     string
	origin   Origin
	source   string
	targets  []string
	messages []string

	deps  DependencySource
	blobs MessageBlobSource
	reg   TimestampRegister

	// Per-instance memos of persistent-store values. Entries are
	// populated once and never invalidated in place; overwrites happen
	// only through the bulk-preload setters.
	mu         sync.RWMutex
	fileDeps   map[string][]string
	blobMtimes map[string]int64

	now func() time.Time
}

// NewBase creates the shared base for a bundle of the given kind. The kind
// identifier feeds the default definition summary.
func NewBase(kind string) *Base {
	return &Base{
		kind:       kind,
		origin:     OriginCoreSitewide,
		source:     "local",
		targets:    []string{"desktop"},
		fileDeps:   make(map[string][]string),
		blobMtimes: make(map[string]int64),
		now:        time.Now,
	}
}

// SetStores wires the persistent-store readers. Bundles without stores
// fall back to empty dependency lists and sentinel blob timestamps.
func (b *Base) SetStores(deps DependencySource, blobs MessageBlobSource) {
	b.deps = deps
	b.blobs = blobs
}

// SetTimestamps wires the shared first-seen timestamp register.
func (b *Base) SetTimestamps(reg TimestampRegister) {
	b.reg = reg
}

// Name returns the unique bundle name assigned at registration.
func (b *Base) Name() string { return b.name }

// SetName assigns the bundle name. Called exactly once, by registration.
func (b *Base) SetName(name string) { b.name = name }

// Origin returns the bundle's trust tier.
func (b *Base) Origin() Origin { return b.origin }

// SetOrigin downgrades the bundle's trust tier. Called at registration.
func (b *Base) SetOrigin(o Origin) { b.origin = o }

// Targets returns the platform tags the bundle is eligible for.
func (b *Base) Targets() []string { return b.targets }

// SetTargets replaces the platform tags.
func (b *Base) SetTargets(targets []string) { b.targets = targets }

// Source returns the name of the source the bundle loads from.
func (b *Base) Source() string { return b.source }

// SetSource changes the source the bundle loads from.
func (b *Base) SetSource(source string) { b.source = source }

// Messages returns the message keys the bundle declares.
func (b *Base) Messages() []string { return b.messages }

// SetMessages declares the bundle's message keys.
func (b *Base) SetMessages(messages []string) { b.messages = messages }

// Group returns the load group; empty means the default group.
func (b *Base) Group() string { return "" }

// Position returns where the bundle loads in the page. Default "bottom".
func (b *Base) Position() string { return "bottom" }

// LoaderScript returns custom loader code, if the kind supplies any.
func (b *Base) LoaderScript() string { return "" }

// SkipFunction returns the body of a boolean-returning function that,
// when it evaluates true on the client, skips loading the bundle. Kinds
// that override this must return syntactically valid code.
func (b *Base) SkipFunction() string { return "" }

// Raw reports whether the bundle bypasses the client-side loader.
func (b *Base) Raw() bool { return false }

// SupportsURLLoading reports whether debug mode may serve this bundle as a
// standalone URL. Kinds whose content cannot stand alone return false and
// fall back to inline delivery.
func (b *Base) SupportsURLLoading() bool { return true }

// Script returns the bundle's script content. Default: none.
func (b *Base) Script(_ context.Context, _ *Context) (string, error) { return "", nil }

// Styles returns the bundle's CSS keyed by media query. Default: none.
func (b *Base) Styles(_ context.Context, _ *Context) (map[string]string, error) {
	return map[string]string{}, nil
}

// Templates returns the bundle's templates keyed by name. Default: none.
func (b *Base) Templates(_ context.Context, _ *Context) (map[string]string, error) {
	return map[string]string{}, nil
}

// Dependencies returns the names of bundles that must load first.
func (b *Base) Dependencies(_ *Context) []string { return nil }

// KnownEmpty reports whether the bundle is known to produce no output for
// the context, letting callers skip it cheaply.
func (b *Base) KnownEmpty(_ *Context) bool { return false }

// ModifiedTime returns the bundle's cache-invalidation timestamp for the
// context. The base value 1 means "never changes"; kinds combine file
// mtimes, blob timestamps, HashMtime, and DefinitionMtime as appropriate.
func (b *Base) ModifiedTime(_ context.Context, _ *Context) (int64, error) { return 1, nil }

// ModifiedHash returns a hash of the bundle's current content, for kinds
// that can compute one cheaply. Empty means the hash mechanism is inert.
func (b *Base) ModifiedHash(_ *Context) string { return "" }

// DefinitionSummary returns a plain structured snapshot of the bundle's
// declaration. The base summary carries only the kind identifier.
func (b *Base) DefinitionSummary(_ *Context) any {
	return map[string]any{"kind": b.kind}
}

// FileDependencies returns the recorded file-dependency list for a skin.
// The first call per skin queries the persistent store; later calls are
// served from the per-instance memo.
func (b *Base) FileDependencies(ctx context.Context, skin string) ([]string, error) {
	b.mu.RLock()
	deps, ok := b.fileDeps[skin]
	b.mu.RUnlock()
	if ok {
		return deps, nil
	}

	deps = []string{}
	if b.deps != nil {
		fetched, err := b.deps.FileDependencies(ctx, b.name, skin)
		if err != nil {
			return nil, fmt.Errorf("file dependencies for %q/%q: %w", b.name, skin, err)
		}
		deps = fetched
	}

	b.mu.Lock()
	b.fileDeps[skin] = deps
	b.mu.Unlock()
	return deps, nil
}

// SetFileDependencies populates the per-skin memo directly. Used by the
// loader's bulk preload so one store query can serve many bundles.
func (b *Base) SetFileDependencies(skin string, deps []string) {
	b.mu.Lock()
	b.fileDeps[skin] = deps
	b.mu.Unlock()
}

// MsgBlobMtime returns the timestamp of the localized message blob for a
// language. A bundle declaring no messages short-circuits to 1 without
// touching the store. A declared-but-missing blob reports the current time
// — "needs regeneration now" — and deliberately does not memoize, so a
// later blob write stays observable.
func (b *Base) MsgBlobMtime(ctx context.Context, lang string) (int64, error) {
	if len(b.messages) == 0 {
		return 1, nil
	}

	b.mu.RLock()
	ts, ok := b.blobMtimes[lang]
	b.mu.RUnlock()
	if ok {
		return ts, nil
	}

	if b.blobs == nil {
		return 1, nil
	}

	mtime, found, err := b.blobs.BlobMtime(ctx, b.name, lang)
	if err != nil {
		return 0, fmt.Errorf("message blob mtime for %q/%q: %w", b.name, lang, err)
	}
	if !found {
		return b.now().Unix(), nil
	}

	ts = mtime.Unix()
	b.mu.Lock()
	b.blobMtimes[lang] = ts
	b.mu.Unlock()
	return ts, nil
}

// SetMsgBlobMtime populates the per-language memo directly, for bulk
// preloading.
func (b *Base) SetMsgBlobMtime(lang string, mtime int64) {
	b.mu.Lock()
	b.blobMtimes[lang] = mtime
	b.mu.Unlock()
}
