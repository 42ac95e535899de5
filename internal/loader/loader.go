// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package loader holds the bundle registry: the named set of bundles a
// deployment serves, the named sources their URLs point at, and the bulk
// preload that front-loads per-request store traffic into one query.
package loader

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"loadstone/internal/bundle"
)

// SkinDependencySource answers one bulk dependency query for many
// modules at once.
type SkinDependencySource interface {
	ForSkin(ctx context.Context, skin string, modules []string) (map[string][]string, error)
}

// Loader is the bundle registry for one deployment. Registration happens
// at startup; lookups and URL building are concurrent after that.
type Loader struct {
	mu      sync.RWMutex
	bundles map[string]bundle.Bundle
	sources map[string]string

	deps SkinDependencySource
}

var _ bundle.URLBuilder = (*Loader)(nil)

// New creates a registry whose "local" source serves from loadPath.
func New(loadPath string, deps SkinDependencySource) *Loader {
	return &Loader{
		bundles: make(map[string]bundle.Bundle),
		sources: map[string]string{"local": loadPath},
		deps:    deps,
	}
}

// Register adds a bundle under a name. The name is stamped onto the
// bundle so its cache keys and store rows are scoped correctly.
func (l *Loader) Register(name string, b bundle.Bundle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.bundles[name]; exists {
		return fmt.Errorf("bundle %q already registered", name)
	}
	b.SetName(name)
	l.bundles[name] = b
	return nil
}

// RegisterSource adds a named load URL for bundles served by another
// deployment.
func (l *Loader) RegisterSource(name, loadURL string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.sources[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}
	l.sources[name] = loadURL
	return nil
}

// Get returns the bundle registered under name.
func (l *Loader) Get(name string) (bundle.Bundle, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.bundles[name]
	return b, ok
}

// Names returns every registered bundle name, sorted.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.bundles))
	for name := range l.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadURL renders the load endpoint URL for a request context against a
// named source. An unknown source falls back to the local endpoint —
// a wrong-but-served URL beats a broken page.
func (l *Loader) LoadURL(rc *bundle.Context, source string) string {
	l.mu.RLock()
	base, ok := l.sources[source]
	l.mu.RUnlock()
	if !ok {
		l.mu.RLock()
		base = l.sources["local"]
		l.mu.RUnlock()
	}

	values := url.Values{}
	values.Set("modules", strings.Join(rc.Modules, "|"))
	values.Set("lang", rc.Lang)
	values.Set("skin", rc.Skin)
	if rc.Debug {
		values.Set("debug", "true")
	}
	if rc.Only != "" {
		values.Set("only", rc.Only)
	}
	if rc.Version != "" {
		values.Set("version", rc.Version)
	}
	return base + "?" + values.Encode()
}

// PreloadDependencies fetches the recorded file dependencies of many
// bundles in one store query and populates their memos, including the
// bundles with no stored row — an absent row is a known-empty list, not
// an unknown, so the per-bundle fallback query never fires.
func (l *Loader) PreloadDependencies(ctx context.Context, skin string, names []string) error {
	if l.deps == nil || len(names) == 0 {
		return nil
	}

	lists, err := l.deps.ForSkin(ctx, skin, names)
	if err != nil {
		return fmt.Errorf("preload dependencies for skin %q: %w", skin, err)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, name := range names {
		b, ok := l.bundles[name]
		if !ok {
			continue
		}
		deps := lists[name]
		if deps == nil {
			deps = []string{}
		}
		b.SetFileDependencies(skin, deps)
	}
	return nil
}

// Resolve maps the requested module names to registered bundles,
// silently dropping unknown names. The delivery handler reports those
// to the client inside the response body, not as a request failure.
func (l *Loader) Resolve(names []string) ([]bundle.Bundle, []string) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bundles := make([]bundle.Bundle, 0, len(names))
	var missing []string
	for _, name := range names {
		if b, ok := l.bundles[name]; ok {
			bundles = append(bundles, b)
		} else {
			missing = append(missing, name)
		}
	}
	return bundles, missing
}
