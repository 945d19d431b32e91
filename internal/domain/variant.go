package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PopulationFrequency is the allele frequency of a variant in one population, in percent.
type PopulationFrequency struct {
	Source  string  `json:"source"`
	Percent float64 `json:"percent"`
}

// PathogenicityScore is one predictor's score for a variant, normalised to [0,1].
type PathogenicityScore struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// VariantEvaluation is an annotated variant called in the sample together with its
// filter ledger. Annotation is done upstream; this package only reads the attributes.
type VariantEvaluation struct {
	FilterLedger `json:"-"`

	Chromosome   int     `json:"chromosome"`
	Position     int     `json:"position"`
	Ref          string  `json:"ref"`
	Alt          string  `json:"alt"`
	Genotype     string  `json:"genotype"`
	GeneSymbol   string  `json:"gene_symbol"`
	EntrezGeneID string  `json:"entrez_gene_id,omitempty"`
	Quality      float64 `json:"quality"`

	// Effect is the most severe sequence ontology consequence, e.g. MISSENSE_VARIANT.
	Effect        string                `json:"effect,omitempty"`
	Frequencies   []PopulationFrequency `json:"frequencies,omitempty"`
	Pathogenicity []PathogenicityScore  `json:"pathogenicity,omitempty"`
}

// Key is the variant identity: position, alleles and genotype.
func (v *VariantEvaluation) Key() string {
	return fmt.Sprintf("%s-%d-%s-%s-%s", ChromosomeName(v.Chromosome), v.Position, v.Ref, v.Alt, v.Genotype)
}

// HasFrequencyData reports whether any population frequency is known.
func (v *VariantEvaluation) HasFrequencyData() bool {
	return len(v.Frequencies) > 0
}

// MaxFrequency returns the highest population frequency in percent, or 0 without data.
func (v *VariantEvaluation) MaxFrequency() float64 {
	maxFreq := 0.0
	for _, f := range v.Frequencies {
		if f.Percent > maxFreq {
			maxFreq = f.Percent
		}
	}
	return maxFreq
}

// HasPathogenicityData reports whether any predictor scored the variant.
func (v *VariantEvaluation) HasPathogenicityData() bool {
	return len(v.Pathogenicity) > 0
}

// MaxPathogenicity returns the highest predicted pathogenicity, or 0 without data.
func (v *VariantEvaluation) MaxPathogenicity() float64 {
	maxScore := 0.0
	for _, p := range v.Pathogenicity {
		if p.Score > maxScore {
			maxScore = p.Score
		}
	}
	return maxScore
}

// Zygosity returns the zygosity of the sample genotype.
func (v *VariantEvaluation) Zygosity() Zygosity {
	return ParseZygosity(v.Genotype)
}

// MarshalJSON adds the filter outcomes to the variant attributes.
func (v *VariantEvaluation) MarshalJSON() ([]byte, error) {
	type attributes VariantEvaluation
	return json.Marshal(struct {
		*attributes
		PassedFilters bool               `json:"passed_filters"`
		FilterResults []FilterResultView `json:"filter_results"`
	}{
		attributes:    (*attributes)(v),
		PassedFilters: v.PassedFilters(),
		FilterResults: v.FilterResultViews(),
	})
}

// Zygosity of a called genotype in a single sample.
type Zygosity string

const (
	HETEROZYGOUS Zygosity = "HETEROZYGOUS"
	HOMOZYGOUS   Zygosity = "HOMOZYGOUS"
	HEMIZYGOUS   Zygosity = "HEMIZYGOUS"
	UNKNOWN      Zygosity = "UNKNOWN"
)

// ParseZygosity reads a VCF style GT value such as 0/1, 1|1 or 1.
func ParseZygosity(genotype string) Zygosity {
	alleles := strings.FieldsFunc(genotype, func(r rune) bool { return r == '/' || r == '|' })
	switch len(alleles) {
	case 1:
		if alleles[0] != "0" && alleles[0] != "." {
			return HEMIZYGOUS
		}
	case 2:
		if alleles[0] == "." || alleles[1] == "." {
			return UNKNOWN
		}
		if alleles[0] == alleles[1] {
			if alleles[0] == "0" {
				return UNKNOWN
			}
			return HOMOZYGOUS
		}
		return HETEROZYGOUS
	}
	return UNKNOWN
}
