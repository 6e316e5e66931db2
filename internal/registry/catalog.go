// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/source-engine/pkg/types"
)

// Catalog is the on-disk representation of the source catalog, in YAML or TOML.
type Catalog struct {
	Sources []CatalogEntry `yaml:"sources" toml:"sources"`
}

// CatalogEntry is one source in a catalog file. AuthorityScore is optional
// and defaults to BaseQuality.
type CatalogEntry struct {
	ID             string   `yaml:"id" toml:"id"`
	BaseQuality    float64  `yaml:"base_quality" toml:"base_quality"`
	AuthorityScore *float64 `yaml:"authority_score,omitempty" toml:"authority_score,omitempty"`
	CostPerCall    float64  `yaml:"cost_per_call" toml:"cost_per_call"`
	CoverageWeight float64  `yaml:"coverage_weight" toml:"coverage_weight"`
}

// Profile converts the entry into a SourceProfile.
func (e CatalogEntry) Profile() types.SourceProfile {
	authority := e.BaseQuality
	if e.AuthorityScore != nil {
		authority = *e.AuthorityScore
	}
	return types.SourceProfile{
		ID:             e.ID,
		BaseQuality:    e.BaseQuality,
		AuthorityScore: authority,
		CostPerCall:    e.CostPerCall,
		CoverageWeight: e.CoverageWeight,
	}
}

// LoadCatalog reads a catalog file and returns its profiles. Files ending in
// .toml are decoded as TOML, everything else as YAML. Profiles are validated
// and duplicate ids rejected.
func LoadCatalog(path string) ([]types.SourceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var cat Catalog
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cat); err != nil {
			return nil, fmt.Errorf("parsing TOML catalog %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("parsing YAML catalog %s: %w", path, err)
		}
	}

	profiles := make([]types.SourceProfile, len(cat.Sources))
	for i, e := range cat.Sources {
		profiles[i] = e.Profile()
	}
	if _, err := NewSnapshot(0, profiles); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return profiles, nil
}

// WriteCatalog saves profiles as a catalog file, TOML when path ends in
// .toml and YAML otherwise.
func WriteCatalog(path string, profiles []types.SourceProfile) error {
	cat := Catalog{Sources: make([]CatalogEntry, len(profiles))}
	for i, p := range profiles {
		authority := p.AuthorityScore
		cat.Sources[i] = CatalogEntry{
			ID:             p.ID,
			BaseQuality:    p.BaseQuality,
			AuthorityScore: &authority,
			CostPerCall:    p.CostPerCall,
			CoverageWeight: p.CoverageWeight,
		}
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cat); err != nil {
			return fmt.Errorf("marshaling catalog: %w", err)
		}
		return os.WriteFile(path, buf.Bytes(), 0o644)
	}
	data, err := yaml.Marshal(&cat)
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultProfiles returns the built-in five-source catalog.
func DefaultProfiles() []types.SourceProfile {
	return []types.SourceProfile{
		{ID: "github", BaseQuality: 0.85, AuthorityScore: 0.85, CostPerCall: 1.2, CoverageWeight: 0.50},
		{ID: "hackernews", BaseQuality: 0.80, AuthorityScore: 0.80, CostPerCall: 1.0, CoverageWeight: 0.70},
		{ID: "producthunt", BaseQuality: 0.60, AuthorityScore: 0.60, CostPerCall: 3.0, CoverageWeight: 0.45},
		{ID: "reddit", BaseQuality: 0.70, AuthorityScore: 0.70, CostPerCall: 0.5, CoverageWeight: 0.80},
		{ID: "twitter", BaseQuality: 0.55, AuthorityScore: 0.55, CostPerCall: 2.5, CoverageWeight: 0.75},
	}
}
