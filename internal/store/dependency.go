// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides access to the persistent tables the bundle
// invalidation logic reads: per-(module, skin) file-dependency lists and
// per-(module, language) message-blob timestamps.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DependencyStore reads the module_dependencies table: the list of files a
// bundle's rendered output was observed to depend on, per skin.
type DependencyStore struct {
	db *sql.DB
}

// NewDependencyStore creates a new DependencyStore with the given database connection.
func NewDependencyStore(db *sql.DB) *DependencyStore {
	return &DependencyStore{db: db}
}

// FileDependencies returns the dependency list recorded for (module, skin).
// A missing row is not an error: it decodes to an empty list.
func (s *DependencyStore) FileDependencies(ctx context.Context, module, skin string) ([]string, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT deps FROM module_dependencies
		WHERE module = $1 AND skin = $2
	`, module, skin).Scan(&raw)
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query module dependencies: %w", err)
	}

	var deps []string
	if err := json.Unmarshal(raw, &deps); err != nil {
		return nil, fmt.Errorf("decode module dependencies: %w", err)
	}
	return deps, nil
}

// ForSkin returns the dependency lists for every named module in one query,
// keyed by module name. Modules with no recorded row are absent from the
// result. Used by the loader to preload many bundles at once instead of
// issuing one query per bundle.
func (s *DependencyStore) ForSkin(ctx context.Context, skin string, modules []string) (map[string][]string, error) {
	if len(modules) == 0 {
		return map[string][]string{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT module, deps FROM module_dependencies
		WHERE skin = $1 AND module = ANY($2)
	`, skin, modules)
	if err != nil {
		return nil, fmt.Errorf("query dependencies for skin: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var module string
		var raw []byte
		if err := rows.Scan(&module, &raw); err != nil {
			return nil, fmt.Errorf("scan dependency row: %w", err)
		}
		var deps []string
		if err := json.Unmarshal(raw, &deps); err != nil {
			return nil, fmt.Errorf("decode dependencies for %q: %w", module, err)
		}
		result[module] = deps
	}
	return result, rows.Err()
}
