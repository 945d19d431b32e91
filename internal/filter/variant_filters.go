package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phenorank/internal/domain"
)

// IntervalFilter passes variants inside one genetic interval. Two interval filters
// are equal iff their intervals are equal, so the struct is usable as a map key.
type IntervalFilter struct {
	interval domain.GeneticInterval
}

func NewIntervalFilter(interval domain.GeneticInterval) IntervalFilter {
	return IntervalFilter{interval: interval}
}

func (f IntervalFilter) FilterType() domain.FilterType { return domain.INTERVAL_FILTER }

func (f IntervalFilter) Interval() domain.GeneticInterval { return f.interval }

func (f IntervalFilter) RunFilter(v *domain.VariantEvaluation) domain.FilterResult {
	return domain.ResultOf(domain.INTERVAL_FILTER, f.interval.Contains(v.Chromosome, v.Position))
}

// Equal compares interval filters by interval.
func (f IntervalFilter) Equal(other IntervalFilter) bool {
	return f.interval == other.interval
}

func (f IntervalFilter) String() string {
	return fmt.Sprintf("IntervalFilter{interval=%s}", f.interval)
}

// QualityFilter passes variants whose call quality is at least the threshold.
type QualityFilter struct {
	minQuality float64
}

func NewQualityFilter(minQuality float64) (QualityFilter, error) {
	if minQuality < 0 {
		return QualityFilter{}, domain.NewValidationError("min_quality", "must not be negative", minQuality, domain.ErrInvalidFilter)
	}
	return QualityFilter{minQuality: minQuality}, nil
}

func (f QualityFilter) FilterType() domain.FilterType { return domain.QUALITY_FILTER }

func (f QualityFilter) RunFilter(v *domain.VariantEvaluation) domain.FilterResult {
	return domain.ResultOf(domain.QUALITY_FILTER, v.Quality >= f.minQuality)
}

// FrequencyFilter passes variants whose highest population frequency does not exceed
// the cutoff, in percent. Variants never seen in any population pass.
type FrequencyFilter struct {
	maxFrequency float64
}

func NewFrequencyFilter(maxFrequency float64) (FrequencyFilter, error) {
	if maxFrequency < 0 || maxFrequency > 100 {
		return FrequencyFilter{}, domain.NewValidationError("max_frequency", "must be a percentage between 0 and 100", maxFrequency, domain.ErrInvalidFilter)
	}
	return FrequencyFilter{maxFrequency: maxFrequency}, nil
}

func (f FrequencyFilter) FilterType() domain.FilterType { return domain.FREQUENCY_FILTER }

func (f FrequencyFilter) RunFilter(v *domain.VariantEvaluation) domain.FilterResult {
	if !v.HasFrequencyData() {
		return domain.Pass(domain.FREQUENCY_FILTER)
	}
	return domain.ResultOf(domain.FREQUENCY_FILTER, v.MaxFrequency() <= f.maxFrequency)
}

// PathogenicityFilter passes variants predicted pathogenic by at least one predictor.
// With keepNonPathogenic set every variant passes, so the filter only records that
// it was applied.
type PathogenicityFilter struct {
	minScore          float64
	keepNonPathogenic bool
}

func NewPathogenicityFilter(minScore float64, keepNonPathogenic bool) (PathogenicityFilter, error) {
	if minScore < 0 || minScore > 1 {
		return PathogenicityFilter{}, domain.NewValidationError("min_pathogenicity", "must be between 0 and 1", minScore, domain.ErrInvalidFilter)
	}
	return PathogenicityFilter{minScore: minScore, keepNonPathogenic: keepNonPathogenic}, nil
}

func (f PathogenicityFilter) FilterType() domain.FilterType { return domain.PATHOGENICITY_FILTER }

func (f PathogenicityFilter) RunFilter(v *domain.VariantEvaluation) domain.FilterResult {
	if f.keepNonPathogenic {
		return domain.Pass(domain.PATHOGENICITY_FILTER)
	}
	return domain.ResultOf(domain.PATHOGENICITY_FILTER, v.HasPathogenicityData() && v.MaxPathogenicity() >= f.minScore)
}

// VariantEffectFilter fails variants whose effect is off target, e.g. intergenic or
// synonymous. A variant without an annotated effect is not evaluated.
type VariantEffectFilter struct {
	offTarget map[string]struct{}
}

func NewVariantEffectFilter(offTargetEffects []string) VariantEffectFilter {
	offTarget := make(map[string]struct{}, len(offTargetEffects))
	for _, effect := range offTargetEffects {
		offTarget[normaliseEffect(effect)] = struct{}{}
	}
	return VariantEffectFilter{offTarget: offTarget}
}

func (f VariantEffectFilter) FilterType() domain.FilterType { return domain.VARIANT_EFFECT_FILTER }

func (f VariantEffectFilter) RunFilter(v *domain.VariantEvaluation) domain.FilterResult {
	if v.Effect == "" {
		return domain.NotRun(domain.VARIANT_EFFECT_FILTER)
	}
	_, off := f.offTarget[normaliseEffect(v.Effect)]
	return domain.ResultOf(domain.VARIANT_EFFECT_FILTER, !off)
}

// OffTargetEffects returns the configured effects, sorted.
func (f VariantEffectFilter) OffTargetEffects() []string {
	effects := make([]string, 0, len(f.offTarget))
	for effect := range f.offTarget {
		effects = append(effects, effect)
	}
	sort.Strings(effects)
	return effects
}

func normaliseEffect(effect string) string {
	return strings.ToUpper(strings.TrimSpace(effect))
}
