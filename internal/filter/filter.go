// Package filter implements the pass/fail predicates applied to variants and genes
// and the runner that applies an ordered chain of them without ever removing an
// entity from the collection.
package filter

import (
	"github.com/phenorank/internal/domain"
)

// Filter evaluates one entity. A filter that cannot evaluate the entity returns a
// NotRun result rather than an error.
type Filter[T domain.Filterable] interface {
	FilterType() domain.FilterType
	RunFilter(entity T) domain.FilterResult
}

// VariantFilter is a filter over variants.
type VariantFilter = Filter[*domain.VariantEvaluation]

// GeneFilter is a filter over genes.
type GeneFilter = Filter[*domain.Gene]

// Types returns the filter types of a chain in order.
func Types[T domain.Filterable](filters []Filter[T]) []domain.FilterType {
	types := make([]domain.FilterType, len(filters))
	for i, f := range filters {
		types[i] = f.FilterType()
	}
	return types
}
