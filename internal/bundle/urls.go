// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// urls.go resolves the direct-file URLs debug mode serves instead of the
// combined production response.
package bundle

// DebugScriptURLs returns the URLs that load this bundle's scripts
// unbundled in debug mode. The derived context is scoped to exactly this
// bundle with only=scripts, so requesting the returned URL cannot recurse
// back into URL resolution. Returns nil when the context has no loader or
// the kind does not support URL loading.
func DebugScriptURLs(b Bundle, rc *Context) []string {
	return debugURLs(b, rc, "scripts")
}

// DebugStyleURLs is DebugScriptURLs for the bundle's styles.
func DebugStyleURLs(b Bundle, rc *Context) []string {
	return debugURLs(b, rc, "styles")
}

func debugURLs(b Bundle, rc *Context, only string) []string {
	if rc.Loader == nil || !b.SupportsURLLoading() {
		return nil
	}
	derived := rc.DeriveFor(b.Name(), only)
	return []string{rc.Loader.LoadURL(derived, b.Source())}
}
