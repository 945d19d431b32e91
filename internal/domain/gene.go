package domain

import (
	"encoding/json"
)

// Gene groups the variants called in one gene and carries the gene-level filter
// ledger and phenotype score.
type Gene struct {
	FilterLedger

	identifier       GeneIdentifier
	variants         []*VariantEvaluation
	inheritanceModes []ModeOfInheritance
	priority         PriorityResult
}

// NewGene creates a gene with no variants and the no-evidence priority result.
func NewGene(identifier GeneIdentifier) *Gene {
	return &Gene{
		identifier: identifier,
		priority:   NoEvidence(identifier),
	}
}

func (g *Gene) Identifier() GeneIdentifier { return g.identifier }
func (g *Gene) Symbol() string             { return g.identifier.GeneSymbol() }
func (g *Gene) EntrezGeneID() int          { return g.identifier.EntrezIDAsInt() }

// AddVariant assigns a variant to the gene.
func (g *Gene) AddVariant(variant *VariantEvaluation) {
	g.variants = append(g.variants, variant)
}

// Variants returns every variant of the gene in the order they were added.
func (g *Gene) Variants() []*VariantEvaluation {
	return g.variants
}

// PassedVariants returns the variants that passed all filters run so far.
func (g *Gene) PassedVariants() []*VariantEvaluation {
	passed := make([]*VariantEvaluation, 0, len(g.variants))
	for _, v := range g.variants {
		if v.PassedFilters() {
			passed = append(passed, v)
		}
	}
	return passed
}

// HasPassedVariants reports whether at least one variant passed all filters.
func (g *Gene) HasPassedVariants() bool {
	for _, v := range g.variants {
		if v.PassedFilters() {
			return true
		}
	}
	return false
}

// PassedFilters is true iff no gene filter failed and, when the gene has variants,
// at least one of them passed all variant filters.
func (g *Gene) PassedFilters() bool {
	if !g.FilterLedger.PassedFilters() {
		return false
	}
	return len(g.variants) == 0 || g.HasPassedVariants()
}

// SetInheritanceModes records the modes of inheritance the gene's genotypes are
// compatible with.
func (g *Gene) SetInheritanceModes(modes []ModeOfInheritance) {
	g.inheritanceModes = append([]ModeOfInheritance(nil), modes...)
}

// InheritanceModes returns the compatible modes of inheritance.
func (g *Gene) InheritanceModes() []ModeOfInheritance {
	return g.inheritanceModes
}

// IsCompatibleWith reports whether the gene is compatible with the mode.
func (g *Gene) IsCompatibleWith(mode ModeOfInheritance) bool {
	for _, m := range g.inheritanceModes {
		if m == mode {
			return true
		}
	}
	return false
}

// SetPriorityResult attaches the phenotype score.
func (g *Gene) SetPriorityResult(result PriorityResult) {
	g.priority = result
}

func (g *Gene) PriorityResult() PriorityResult { return g.priority }
func (g *Gene) PriorityScore() float64         { return g.priority.Score }

// MarshalJSON renders the gene with its ledger, score and variants.
func (g *Gene) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Identifier       GeneIdentifier       `json:"identifier"`
		PassedFilters    bool                 `json:"passed_filters"`
		FilterResults    []FilterResultView   `json:"filter_results"`
		InheritanceModes []ModeOfInheritance  `json:"inheritance_modes,omitempty"`
		Priority         PriorityResult       `json:"priority"`
		Variants         []*VariantEvaluation `json:"variants"`
	}{
		Identifier:       g.identifier,
		PassedFilters:    g.PassedFilters(),
		FilterResults:    g.FilterResultViews(),
		InheritanceModes: g.inheritanceModes,
		Priority:         g.priority,
		Variants:         g.variants,
	})
}

// CompatibleInheritanceModes derives the modes of inheritance a single sample's
// variants in one gene are compatible with. Heterozygous calls support dominant
// inheritance. A homozygous call or two heterozygous calls support recessive
// inheritance. On X hemizygous calls count as recessive, and any call on the
// mitochondrial chromosome is mitochondrial.
func CompatibleInheritanceModes(variants []*VariantEvaluation) []ModeOfInheritance {
	var hetAutosomal, homAutosomal, hetX, homX, mito int
	for _, v := range variants {
		zygosity := v.Zygosity()
		switch {
		case v.Chromosome == CHR_MT:
			if zygosity != UNKNOWN {
				mito++
			}
		case v.Chromosome == CHR_X:
			switch zygosity {
			case HETEROZYGOUS:
				hetX++
			case HOMOZYGOUS, HEMIZYGOUS:
				homX++
			}
		default:
			switch zygosity {
			case HETEROZYGOUS:
				hetAutosomal++
			case HOMOZYGOUS:
				homAutosomal++
			}
		}
	}

	modes := make([]ModeOfInheritance, 0)
	if hetAutosomal > 0 {
		modes = append(modes, AUTOSOMAL_DOMINANT)
	}
	if homAutosomal > 0 || hetAutosomal > 1 {
		modes = append(modes, AUTOSOMAL_RECESSIVE)
	}
	if hetX > 0 || homX > 0 {
		modes = append(modes, X_DOMINANT)
	}
	if homX > 0 || hetX > 1 {
		modes = append(modes, X_RECESSIVE)
	}
	if mito > 0 {
		modes = append(modes, MITOCHONDRIAL)
	}
	return modes
}
