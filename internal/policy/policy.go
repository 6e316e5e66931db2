// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package policy holds the context configuration table: for every query
// context, the source affinities, budget ceiling, quality floor, and the
// thesis/antithesis blend. The table is loaded once at startup, validated for
// exhaustiveness, and never mutated afterwards.
package policy

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/source-engine/pkg/types"
)

// ErrMissingConfiguration is returned when a context has no configuration.
var ErrMissingConfiguration = errors.New("missing context configuration")

// Table maps each query context to its configuration.
type Table map[types.QueryContext]types.ContextConfiguration

// Lookup returns the configuration for ctx.
func (t Table) Lookup(ctx types.QueryContext) (types.ContextConfiguration, error) {
	cfg, ok := t[ctx]
	if !ok {
		return types.ContextConfiguration{}, fmt.Errorf("%w: %s", ErrMissingConfiguration, ctx)
	}
	return cfg, nil
}

// Validate checks that every known context has exactly one configuration,
// that no unknown contexts are present, and that each configuration is
// internally valid. All problems are reported together.
func (t Table) Validate() error {
	var errs []error
	for _, ctx := range types.AllContexts() {
		cfg, ok := t[ctx]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingConfiguration, ctx))
			continue
		}
		if err := cfg.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("context %s: %w", ctx, err))
		}
	}
	for _, ctx := range t.Contexts() {
		if !ctx.IsValid() {
			errs = append(errs, fmt.Errorf("%w: %q", types.ErrUnknownContext, string(ctx)))
		}
	}
	return errors.Join(errs...)
}

// Contexts returns the table's keys in sorted order.
func (t Table) Contexts() []types.QueryContext {
	out := make([]types.QueryContext, 0, len(t))
	for ctx := range t {
		out = append(out, ctx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for ctx, cfg := range t {
		if cfg.SourceAffinity != nil {
			aff := make(map[string]float64, len(cfg.SourceAffinity))
			for k, v := range cfg.SourceAffinity {
				aff[k] = v
			}
			cfg.SourceAffinity = aff
		}
		out[ctx] = cfg
	}
	return out
}

// LoadTable reads a YAML policy file keyed by context name. Each entry in
// the file replaces the built-in entry for that context; contexts absent from
// the file keep their defaults. The merged table is validated.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	var file map[string]types.ContextConfiguration
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing policy file %s: %w", path, err)
	}

	table := DefaultTable()
	for name, cfg := range file {
		ctx, err := types.ParseQueryContext(name)
		if err != nil {
			return nil, fmt.Errorf("policy file %s: %w", path, err)
		}
		table[ctx] = cfg
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return table, nil
}

// WriteTable saves t as a YAML policy file.
func WriteTable(path string, t Table) error {
	file := make(map[string]types.ContextConfiguration, len(t))
	for ctx, cfg := range t {
		file[string(ctx)] = cfg
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling policy table: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
