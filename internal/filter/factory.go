package filter

import (
	"fmt"
	"reflect"

	"github.com/phenorank/internal/domain"
)

// Chain is a configured filter chain split by the stage it runs in. Priority filters
// run after the genes have been scored.
type Chain struct {
	VariantFilters  []VariantFilter
	GeneFilters     []GeneFilter
	PriorityFilters []GeneFilter
}

// Types returns every configured filter type in configured order within each stage.
func (c *Chain) Types() []domain.FilterType {
	types := Types(c.VariantFilters)
	types = append(types, Types(c.GeneFilters)...)
	return append(types, Types(c.PriorityFilters)...)
}

// BuildChain creates the filters named by the specs, keeping their order. A spec that
// repeats an earlier one exactly is dropped; any other repeated filter type is an
// error since an entity holds one result per filter type.
func BuildChain(specs []domain.FilterSpec) (*Chain, error) {
	chain := &Chain{}
	seen := make(map[domain.FilterType]domain.FilterSpec, len(specs))

	for i, spec := range specs {
		if previous, ok := seen[spec.Type]; ok {
			if reflect.DeepEqual(previous, spec) {
				continue
			}
			return nil, domain.NewValidationError(fmt.Sprintf("filters[%d].type", i),
				fmt.Sprintf("filter type %s is configured more than once", spec.Type), spec.Type, domain.ErrInvalidFilter)
		}
		seen[spec.Type] = spec

		if err := chain.add(spec); err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
	}
	return chain, nil
}

func (c *Chain) add(spec domain.FilterSpec) error {
	switch spec.Type {
	case domain.INTERVAL_FILTER:
		interval, err := domain.ParseGeneticInterval(spec.Interval)
		if err != nil {
			return err
		}
		c.VariantFilters = append(c.VariantFilters, NewIntervalFilter(interval))
	case domain.QUALITY_FILTER:
		f, err := NewQualityFilter(spec.MinQuality)
		if err != nil {
			return err
		}
		c.VariantFilters = append(c.VariantFilters, f)
	case domain.FREQUENCY_FILTER:
		f, err := NewFrequencyFilter(spec.MaxFrequency)
		if err != nil {
			return err
		}
		c.VariantFilters = append(c.VariantFilters, f)
	case domain.PATHOGENICITY_FILTER:
		f, err := NewPathogenicityFilter(spec.MinPathogenicity, spec.KeepNonPathogenic)
		if err != nil {
			return err
		}
		c.VariantFilters = append(c.VariantFilters, f)
	case domain.VARIANT_EFFECT_FILTER:
		c.VariantFilters = append(c.VariantFilters, NewVariantEffectFilter(spec.OffTargetEffects))
	case domain.INHERITANCE_FILTER:
		f, err := NewInheritanceModeFilter(spec.InheritanceModes)
		if err != nil {
			return err
		}
		c.GeneFilters = append(c.GeneFilters, f)
	case domain.ENTREZ_GENE_ID_FILTER:
		c.GeneFilters = append(c.GeneFilters, NewEntrezGeneIDFilter(spec.EntrezGeneIDs))
	case domain.PRIORITY_SCORE_FILTER:
		f, err := NewPriorityScoreFilter(spec.MinPriorityScore)
		if err != nil {
			return err
		}
		c.PriorityFilters = append(c.PriorityFilters, f)
	default:
		return domain.NewValidationError("type", fmt.Sprintf("unknown filter type '%s'", spec.Type), spec.Type, domain.ErrInvalidFilter)
	}
	return nil
}
