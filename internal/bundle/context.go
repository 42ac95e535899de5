// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// context.go carries the per-request parameters a bundle renders against
// and the handle back to the orchestrating loader.
package bundle

import "strings"

// URLBuilder renders a load URL for a named source and a request context.
// The loader implements this; bundles reach it through the Context rather
// than holding a loader reference themselves.
type URLBuilder interface {
	LoadURL(rc *Context, source string) string
}

// Context holds the request-scoped parameters that select what a bundle
// renders: language, skin, debug mode, text direction, the requesting
// user, and optionally a restriction to a single resource kind.
type Context struct {
	Lang      string
	Skin      string
	Direction string // "ltr" or "rtl"
	User      string
	Debug     bool
	Only      string // "", "scripts", "styles", "templates", "messages"
	Modules   []string
	Version   string

	Loader URLBuilder
}

// Hash derives a request-scoped cache key from every parameter that can
// change what a bundle renders.
func (rc *Context) Hash() string {
	debug := "0"
	if rc.Debug {
		debug = "1"
	}
	return strings.Join([]string{
		rc.Lang, rc.Direction, rc.Skin, rc.User, debug, rc.Only, rc.Version,
	}, "|")
}

// DeriveFor returns a copy of the context scoped to exactly one module and
// one resource kind, with debug mode forced on. The only= restriction is
// what keeps a debug URL from recursing into itself when the rendered
// response is requested.
func (rc *Context) DeriveFor(module, only string) *Context {
	derived := *rc
	derived.Modules = []string{module}
	derived.Debug = true
	derived.Only = only
	derived.Version = ""
	return &derived
}
