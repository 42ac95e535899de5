// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// file.go implements the file-based bundle kind: content read from lists
// of script, style, and template files under a local base path, with
// per-skin style variants.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileOptions declares the resources of a file-based bundle. All paths
// are relative to the bundle's local base path.
type FileOptions struct {
	Scripts      []string            // scripts, in load order
	DebugScripts []string            // extra scripts served only in debug mode
	Styles       []string            // styles loaded on every skin
	SkinStyles   map[string][]string // per-skin style overrides
	Templates    []string            // template files, keyed by base name
	Dependencies []string            // bundle names that must load first
	Messages     []string            // declared message keys
	Targets      []string            // platform tags; default "desktop"
	Group        string
	Position     string // default "bottom"
	Raw          bool
}

// FileBundle is a bundle whose content lives in files on disk.
type FileBundle struct {
	Base

	localBase  string
	remoteBase string
	opts       FileOptions

	validator ScriptValidator
}

var _ Bundle = (*FileBundle)(nil)

// NewFileBundle creates a file-based bundle rooted at localBase on disk
// and remoteBase in delivered URLs.
func NewFileBundle(localBase, remoteBase string, opts FileOptions) *FileBundle {
	fb := &FileBundle{
		Base:       *NewBase("file"),
		localBase:  localBase,
		remoteBase: remoteBase,
		opts:       opts,
	}
	fb.SetMessages(opts.Messages)
	if len(opts.Targets) > 0 {
		fb.SetTargets(opts.Targets)
	}
	return fb
}

// SetValidator routes script content through the given validator before
// delivery. Pass nil to disable.
func (fb *FileBundle) SetValidator(v ScriptValidator) { fb.validator = v }

// Group returns the declared load group.
func (fb *FileBundle) Group() string { return fb.opts.Group }

// Position returns the declared position, defaulting to "bottom".
func (fb *FileBundle) Position() string {
	if fb.opts.Position != "" {
		return fb.opts.Position
	}
	return "bottom"
}

// Raw reports whether the bundle bypasses the client-side loader.
func (fb *FileBundle) Raw() bool { return fb.opts.Raw }

// Dependencies returns the declared bundle dependencies.
func (fb *FileBundle) Dependencies(_ *Context) []string { return fb.opts.Dependencies }

// KnownEmpty reports true when the bundle declares no resources at all.
func (fb *FileBundle) KnownEmpty(_ *Context) bool {
	return len(fb.opts.Scripts) == 0 &&
		len(fb.opts.Styles) == 0 && len(fb.opts.SkinStyles) == 0 &&
		len(fb.opts.Templates) == 0 && len(fb.opts.Messages) == 0
}

// Script concatenates the bundle's script files in declared order. Debug
// requests additionally get the debug-only scripts. When a validator is
// wired, each file passes through it, so a file with a syntax error is
// replaced by a cached error-raising substitute instead of breaking the
// combined response.
func (fb *FileBundle) Script(ctx context.Context, rc *Context) (string, error) {
	paths := fb.opts.Scripts
	if rc.Debug && len(fb.opts.DebugScripts) > 0 {
		paths = append(append([]string{}, paths...), fb.opts.DebugScripts...)
	}

	var out strings.Builder
	for _, p := range paths {
		content, err := fb.readFile(p)
		if err != nil {
			return "", err
		}
		if fb.validator != nil {
			content = fb.validator.Script(ctx, p, content)
		}
		out.WriteString(content)
		out.WriteString("\n")
	}
	return out.String(), nil
}

// Styles concatenates the global style files plus the skin's overrides,
// keyed by media query. Everything is served under "all"; finer media
// splitting is a declaration concern we have not needed.
func (fb *FileBundle) Styles(_ context.Context, rc *Context) (map[string]string, error) {
	paths := append(append([]string{}, fb.opts.Styles...), fb.opts.SkinStyles[rc.Skin]...)
	if len(paths) == 0 {
		return map[string]string{}, nil
	}

	var out strings.Builder
	for _, p := range paths {
		content, err := fb.readFile(p)
		if err != nil {
			return nil, err
		}
		out.WriteString(content)
		out.WriteString("\n")
	}
	return map[string]string{"all": out.String()}, nil
}

// Templates returns the template files keyed by base name.
func (fb *FileBundle) Templates(_ context.Context, _ *Context) (map[string]string, error) {
	templates := make(map[string]string, len(fb.opts.Templates))
	for _, p := range fb.opts.Templates {
		content, err := fb.readFile(p)
		if err != nil {
			return nil, err
		}
		templates[filepath.Base(p)] = content
	}
	return templates, nil
}

// DefinitionSummary snapshots every order-sensitive declared property.
// The skin-style keys are sorted so an unordered declaration cannot cause
// false invalidation; file contents are deliberately absent because file
// mtimes already cover them.
func (fb *FileBundle) DefinitionSummary(_ *Context) any {
	skins := make([]string, 0, len(fb.opts.SkinStyles))
	for skin := range fb.opts.SkinStyles {
		skins = append(skins, skin)
	}
	sort.Strings(skins)

	skinStyles := make([]any, 0, len(skins))
	for _, skin := range skins {
		skinStyles = append(skinStyles, map[string]any{
			"skin":   skin,
			"styles": fb.opts.SkinStyles[skin],
		})
	}

	return map[string]any{
		"kind":         "file",
		"remoteBase":   fb.remoteBase,
		"scripts":      fb.opts.Scripts,
		"debugScripts": fb.opts.DebugScripts,
		"styles":       fb.opts.Styles,
		"skinStyles":   skinStyles,
		"templates":    fb.opts.Templates,
		"dependencies": fb.opts.Dependencies,
		"group":        fb.opts.Group,
		"position":     fb.Position(),
		"raw":          fb.opts.Raw,
	}
}

// ModifiedTime combines the newest mtime of every declared file and every
// recorded per-skin dependency file with the message-blob timestamp and
// the definition-summary timestamp. Must stay cheap: the only store
// traffic is one memoized dependency lookup and one memoized blob lookup.
func (fb *FileBundle) ModifiedTime(ctx context.Context, rc *Context) (int64, error) {
	mtime := int64(1)

	bump := func(ts int64) {
		if ts > mtime {
			mtime = ts
		}
	}

	for _, p := range fb.declaredFiles(rc) {
		bump(SafeFileMtime(filepath.Join(fb.localBase, p)))
	}

	deps, err := fb.FileDependencies(ctx, rc.Skin)
	if err != nil {
		return 0, err
	}
	for _, p := range deps {
		bump(SafeFileMtime(filepath.Join(fb.localBase, p)))
	}

	blob, err := fb.MsgBlobMtime(ctx, rc.Lang)
	if err != nil {
		return 0, err
	}
	bump(blob)

	bump(DefinitionMtime(ctx, fb.reg, fb, rc))

	return mtime, nil
}

// declaredFiles lists every file the context's output is built from.
func (fb *FileBundle) declaredFiles(rc *Context) []string {
	var paths []string
	paths = append(paths, fb.opts.Scripts...)
	paths = append(paths, fb.opts.DebugScripts...)
	paths = append(paths, fb.opts.Styles...)
	paths = append(paths, fb.opts.SkinStyles[rc.Skin]...)
	paths = append(paths, fb.opts.Templates...)
	return paths
}

func (fb *FileBundle) readFile(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(fb.localBase, rel))
	if err != nil {
		return "", fmt.Errorf("read bundle file %q: %w", rel, err)
	}
	return string(data), nil
}
