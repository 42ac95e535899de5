// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package bundle

import "testing"

// --------------------------------------------------------------------------
// TestContextHash — the request-scoped cache key
// --------------------------------------------------------------------------

func TestContextHash(t *testing.T) {
	base := func() *Context {
		return &Context{
			Lang:      "en",
			Skin:      "vector",
			Direction: "ltr",
			User:      "anon",
			Only:      "scripts",
			Version:   "v1",
		}
	}

	t.Run("equal contexts hash equally", func(t *testing.T) {
		if base().Hash() != base().Hash() {
			t.Error("identical contexts produced different hashes")
		}
	})

	t.Run("every render-relevant field is significant", func(t *testing.T) {
		variants := map[string]func(*Context){
			"lang":      func(rc *Context) { rc.Lang = "de" },
			"skin":      func(rc *Context) { rc.Skin = "minerva" },
			"direction": func(rc *Context) { rc.Direction = "rtl" },
			"user":      func(rc *Context) { rc.User = "someone" },
			"debug":     func(rc *Context) { rc.Debug = true },
			"only":      func(rc *Context) { rc.Only = "styles" },
			"version":   func(rc *Context) { rc.Version = "v2" },
		}
		ref := base().Hash()
		for field, mutate := range variants {
			rc := base()
			mutate(rc)
			if rc.Hash() == ref {
				t.Errorf("changing %s did not change the hash", field)
			}
		}
	})

	t.Run("module list is not part of the hash", func(t *testing.T) {
		// The hash keys per-request render parameters; which modules are
		// being combined is the caller's concern, not the context's.
		a := base()
		a.Modules = []string{"one"}
		b := base()
		b.Modules = []string{"two", "three"}
		if a.Hash() != b.Hash() {
			t.Error("module list leaked into the context hash")
		}
	})

	t.Run("derived contexts hash differently from their parent", func(t *testing.T) {
		rc := base()
		rc.Debug = false
		derived := rc.DeriveFor("site.app", "styles")
		if derived.Hash() == rc.Hash() {
			t.Error("derivation flips debug and only, so the hash must move")
		}
	})
}
