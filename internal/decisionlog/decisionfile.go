// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decisionlog

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/source-engine/pkg/types"
)

// DecisionFile is the on-disk form of one query and its decision, so a
// decision can be shared or inspected later without re-running it.
type DecisionFile struct {
	Query    string                  `yaml:"query"`
	Decision types.SelectionDecision `yaml:"decision"`
	Summary  DecisionSummary         `yaml:"summary"`
}

// DecisionSummary holds headline figures and the save time.
type DecisionSummary struct {
	Candidates int       `yaml:"candidates"`
	Selected   int       `yaml:"selected"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// WriteDecisionFile saves query and d to a YAML file.
func WriteDecisionFile(path, query string, d types.SelectionDecision) error {
	df := DecisionFile{
		Query:    query,
		Decision: d,
		Summary: DecisionSummary{
			Candidates: len(d.Candidates),
			Selected:   len(d.Selected),
			Timestamp:  time.Now(),
		},
	}
	data, err := yaml.Marshal(&df)
	if err != nil {
		return fmt.Errorf("marshaling decision file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadDecisionFile loads a decision file saved by WriteDecisionFile.
func ReadDecisionFile(path string) (*DecisionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading decision file: %w", err)
	}
	var df DecisionFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parsing decision file: %w", err)
	}
	return &df, nil
}
