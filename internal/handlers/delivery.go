// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP delivery surface: the /load
// endpoint that serves combined bundle content and answers conditional
// requests from bundle modification times.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"loadstone/internal/bundle"
	"loadstone/internal/loader"
)

// Delivery serves bundle content for /load requests.
type Delivery struct {
	loader *loader.Loader

	defaultLang string
	defaultSkin string
}

// NewDelivery creates the delivery handler over a bundle registry.
func NewDelivery(l *loader.Loader) *Delivery {
	return &Delivery{
		loader:      l,
		defaultLang: "en",
		defaultSkin: "vector",
	}
}

// Load handles GET /load. The modules parameter names the bundles to
// combine, pipe-separated; lang, skin, debug, only, and version shape
// what is rendered. Unknown module names are reported inside the
// response body so one bad name cannot break the rest of the batch.
func (d *Delivery) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	modules := splitModules(q.Get("modules"))
	if len(modules) == 0 {
		http.Error(w, "no modules requested", http.StatusBadRequest)
		return
	}

	rc := &bundle.Context{
		Lang:      orDefault(q.Get("lang"), d.defaultLang),
		Skin:      orDefault(q.Get("skin"), d.defaultSkin),
		Direction: orDefault(q.Get("dir"), "ltr"),
		Debug:     q.Get("debug") == "true" || q.Get("debug") == "1",
		Only:      q.Get("only"),
		Modules:   modules,
		Version:   q.Get("version"),
		Loader:    d.loader,
	}

	bundles, missing := d.loader.Resolve(modules)

	names := make([]string, 0, len(bundles))
	for _, b := range bundles {
		names = append(names, b.Name())
	}
	if err := d.loader.PreloadDependencies(ctx, rc.Skin, names); err != nil {
		slog.Error("dependency preload failed", "skin", rc.Skin, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	lastModified, err := d.lastModified(r, bundles, rc)
	if err != nil {
		slog.Error("modified time failed", "modules", modules, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
	d.setCacheControl(w, rc)

	if since, ok := parseIfModifiedSince(r); ok && !lastModified.After(since) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var body string
	switch rc.Only {
	case "styles":
		body, err = renderStyles(ctx, bundles, rc)
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	default:
		body, err = renderScripts(ctx, bundles, missing, rc)
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	}
	if err != nil {
		slog.Error("bundle render failed", "modules", modules, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Write([]byte(body))
}

// lastModified is the newest modification time across the requested
// bundles, truncated to whole seconds to match the HTTP date format.
func (d *Delivery) lastModified(r *http.Request, bundles []bundle.Bundle, rc *bundle.Context) (time.Time, error) {
	max := int64(1)
	for _, b := range bundles {
		mtime, err := b.ModifiedTime(r.Context(), rc)
		if err != nil {
			return time.Time{}, err
		}
		if mtime > max {
			max = mtime
		}
	}
	return time.Unix(max, 0), nil
}

// setCacheControl makes versioned responses long-lived and everything
// else revalidate. A version in the URL means content changes move the
// URL itself, which is what makes the long TTL safe.
func (d *Delivery) setCacheControl(w http.ResponseWriter, rc *bundle.Context) {
	if rc.Version != "" && !rc.Debug {
		w.Header().Set("Cache-Control", "public, max-age=2592000, immutable")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300, must-revalidate")
}

func renderScripts(ctx context.Context, bundles []bundle.Bundle, missing []string, rc *bundle.Context) (string, error) {
	var out strings.Builder
	if len(missing) > 0 {
		sort.Strings(missing)
		fmt.Fprintf(&out, "/* unknown modules: %s */\n", strings.Join(missing, ", "))
	}
	for _, b := range bundles {
		if b.KnownEmpty(rc) {
			continue
		}
		script, err := b.Script(ctx, rc)
		if err != nil {
			return "", fmt.Errorf("render %q: %w", b.Name(), err)
		}
		fmt.Fprintf(&out, "/* %s */\n", b.Name())
		out.WriteString(script)
		if !strings.HasSuffix(script, "\n") {
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}

func renderStyles(ctx context.Context, bundles []bundle.Bundle, rc *bundle.Context) (string, error) {
	var out strings.Builder
	for _, b := range bundles {
		styles, err := b.Styles(ctx, rc)
		if err != nil {
			return "", fmt.Errorf("render %q: %w", b.Name(), err)
		}
		media := make([]string, 0, len(styles))
		for m := range styles {
			media = append(media, m)
		}
		sort.Strings(media)
		for _, m := range media {
			css := styles[m]
			if css == "" {
				continue
			}
			if m == "" || m == "all" {
				out.WriteString(css)
			} else {
				fmt.Fprintf(&out, "@media %s {\n%s}\n", m, css)
			}
		}
	}
	return out.String(), nil
}

// moduleNameRE is the charset registered bundle names draw from. Names
// outside it are dropped at the door: the unknown-module report echoes
// names into a script comment, so nothing that could terminate the
// comment may get that far.
var moduleNameRE = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func splitModules(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	modules := parts[:0]
	for _, p := range parts {
		if moduleNameRE.MatchString(p) {
			modules = append(modules, p)
		}
	}
	return modules
}

func orDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func parseIfModifiedSince(r *http.Request) (time.Time, bool) {
	raw := r.Header.Get("If-Modified-Since")
	if raw == "" {
		return time.Time{}, false
	}
	since, err := http.ParseTime(raw)
	if err != nil {
		return time.Time{}, false
	}
	return since, true
}
