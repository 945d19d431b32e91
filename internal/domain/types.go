// Package domain contains the core entities for phenotype-driven gene and variant
// prioritisation: filter outcomes, gene identifiers, variants, genes, phenotype terms,
// phenotype matches and the disease and model-organism models they are scored against.
package domain

import (
	"errors"
	"sort"
)

// FilterType identifies a concrete filter. It is the key of an entity's filter ledger
// and is used for reporting, never for runtime type inspection.
type FilterType string

const (
	INTERVAL_FILTER       FilterType = "INTERVAL_FILTER"
	QUALITY_FILTER        FilterType = "QUALITY_FILTER"
	FREQUENCY_FILTER      FilterType = "FREQUENCY_FILTER"
	PATHOGENICITY_FILTER  FilterType = "PATHOGENICITY_FILTER"
	VARIANT_EFFECT_FILTER FilterType = "VARIANT_EFFECT_FILTER"
	INHERITANCE_FILTER    FilterType = "INHERITANCE_FILTER"
	PRIORITY_SCORE_FILTER FilterType = "PRIORITY_SCORE_FILTER"
	ENTREZ_GENE_ID_FILTER FilterType = "ENTREZ_GENE_ID_FILTER"
)

// FilterTypes lists every filter type in declaration order.
var FilterTypes = []FilterType{
	INTERVAL_FILTER,
	QUALITY_FILTER,
	FREQUENCY_FILTER,
	PATHOGENICITY_FILTER,
	VARIANT_EFFECT_FILTER,
	INHERITANCE_FILTER,
	PRIORITY_SCORE_FILTER,
	ENTREZ_GENE_ID_FILTER,
}

// IsValid reports whether the filter type is one of the known filter types.
func (ft FilterType) IsValid() bool {
	switch ft {
	case INTERVAL_FILTER, QUALITY_FILTER, FREQUENCY_FILTER, PATHOGENICITY_FILTER,
		VARIANT_EFFECT_FILTER, INHERITANCE_FILTER, PRIORITY_SCORE_FILTER, ENTREZ_GENE_ID_FILTER:
		return true
	default:
		return false
	}
}

// String returns the string representation of the filter type.
func (ft FilterType) String() string {
	return string(ft)
}

// IsGeneFilter reports whether filters of this type evaluate genes rather than variants.
func (ft FilterType) IsGeneFilter() bool {
	switch ft {
	case INHERITANCE_FILTER, PRIORITY_SCORE_FILTER, ENTREZ_GENE_ID_FILTER:
		return true
	default:
		return false
	}
}

// SortFilterTypes sorts filter types in place by name.
func SortFilterTypes(types []FilterType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}

// Organism identifies the species whose phenotype ontology a model is annotated with.
type Organism string

const (
	HUMAN Organism = "HUMAN"
	MOUSE Organism = "MOUSE"
	FISH  Organism = "FISH"
)

// Organisms lists the supported organisms in their tie-break order.
var Organisms = []Organism{HUMAN, MOUSE, FISH}

// IsValid reports whether the organism is supported.
func (o Organism) IsValid() bool {
	switch o {
	case HUMAN, MOUSE, FISH:
		return true
	default:
		return false
	}
}

// String returns the string representation of the organism.
func (o Organism) String() string {
	return string(o)
}

// OntologyPrefix returns the id prefix of the organism's phenotype ontology.
func (o Organism) OntologyPrefix() string {
	switch o {
	case HUMAN:
		return "HP"
	case MOUSE:
		return "MP"
	case FISH:
		return "ZP"
	default:
		return ""
	}
}

// ModeOfInheritance is a Mendelian inheritance pattern a gene can be compatible with.
type ModeOfInheritance string

const (
	AUTOSOMAL_DOMINANT  ModeOfInheritance = "AUTOSOMAL_DOMINANT"
	AUTOSOMAL_RECESSIVE ModeOfInheritance = "AUTOSOMAL_RECESSIVE"
	X_DOMINANT          ModeOfInheritance = "X_DOMINANT"
	X_RECESSIVE         ModeOfInheritance = "X_RECESSIVE"
	MITOCHONDRIAL       ModeOfInheritance = "MITOCHONDRIAL"
)

// IsValid reports whether the mode of inheritance is known.
func (m ModeOfInheritance) IsValid() bool {
	switch m {
	case AUTOSOMAL_DOMINANT, AUTOSOMAL_RECESSIVE, X_DOMINANT, X_RECESSIVE, MITOCHONDRIAL:
		return true
	default:
		return false
	}
}

// FilterPolicy controls whether the filter runner keeps evaluating an entity after it
// has failed a filter. Entities are never removed under either policy.
type FilterPolicy string

const (
	NON_DESTRUCTIVE FilterPolicy = "NON_DESTRUCTIVE"
	DESTRUCTIVE     FilterPolicy = "DESTRUCTIVE"
)

// IsValid reports whether the policy is known.
func (p FilterPolicy) IsValid() bool {
	return p == NON_DESTRUCTIVE || p == DESTRUCTIVE
}

// ScoringMethod is the rule an organism's ontology index uses to turn per-query-term
// best matches into a single model score.
type ScoringMethod string

const (
	// MEAN averages best/max over the query terms.
	MEAN ScoringMethod = "MEAN"
	// MAX_MEAN averages the normalised maximum and the normalised mean.
	MAX_MEAN ScoringMethod = "MAX_MEAN"
)

// IsValid reports whether the scoring method is known.
func (m ScoringMethod) IsValid() bool {
	return m == MEAN || m == MAX_MEAN
}

// CombinationPolicy is how per-organism best model scores become one gene score.
type CombinationPolicy string

const (
	// MAX_ORGANISM takes the highest per-organism score.
	MAX_ORGANISM CombinationPolicy = "MAX"
	// WEIGHTED_ORGANISM takes the weighted mean of per-organism scores.
	WEIGHTED_ORGANISM CombinationPolicy = "WEIGHTED"
)

// IsValid reports whether the combination policy is known.
func (p CombinationPolicy) IsValid() bool {
	return p == MAX_ORGANISM || p == WEIGHTED_ORGANISM
}

// Validation errors for construction of domain values
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidIdentifier = errors.New("invalid gene identifier")
	ErrInvalidInterval   = errors.New("invalid genetic interval")
	ErrInvalidFilter     = errors.New("invalid filter specification")
	ErrInvalidPhenotype  = errors.New("invalid phenotype term")
	ErrInvalidPolicy     = errors.New("invalid scoring policy")
	ErrInvalidVariant    = errors.New("invalid variant")
	ErrStore             = errors.New("store failure")
)
