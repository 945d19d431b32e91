package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phenorank/internal/domain"
)

// LoadAnalysis reads and validates an analysis definition. Priority settings the
// file leaves unset are taken from defaults.
func LoadAnalysis(path string, defaults domain.PriorityPolicy) (*domain.Analysis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis file: %w", err)
	}
	return ParseAnalysis(raw, defaults)
}

// ParseAnalysis decodes a YAML analysis definition.
func ParseAnalysis(raw []byte, defaults domain.PriorityPolicy) (*domain.Analysis, error) {
	analysis := &domain.Analysis{}
	if err := yaml.Unmarshal(raw, analysis); err != nil {
		return nil, fmt.Errorf("parsing analysis: %w", err)
	}
	analysis.Priority = analysis.Priority.WithDefaults(defaults)
	if err := analysis.Validate(); err != nil {
		return nil, err
	}
	return analysis, nil
}
