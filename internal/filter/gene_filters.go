package filter

import (
	"github.com/phenorank/internal/domain"
)

// InheritanceModeFilter passes genes compatible with any requested mode of
// inheritance. With no modes requested it is not run.
type InheritanceModeFilter struct {
	modes []domain.ModeOfInheritance
}

func NewInheritanceModeFilter(modes []domain.ModeOfInheritance) (InheritanceModeFilter, error) {
	for _, mode := range modes {
		if !mode.IsValid() {
			return InheritanceModeFilter{}, domain.NewValidationError("inheritance_modes", "unknown mode of inheritance", mode, domain.ErrInvalidFilter)
		}
	}
	return InheritanceModeFilter{modes: append([]domain.ModeOfInheritance(nil), modes...)}, nil
}

func (f InheritanceModeFilter) FilterType() domain.FilterType { return domain.INHERITANCE_FILTER }

func (f InheritanceModeFilter) RunFilter(g *domain.Gene) domain.FilterResult {
	if len(f.modes) == 0 {
		return domain.NotRun(domain.INHERITANCE_FILTER)
	}
	for _, mode := range f.modes {
		if g.IsCompatibleWith(mode) {
			return domain.Pass(domain.INHERITANCE_FILTER)
		}
	}
	return domain.Fail(domain.INHERITANCE_FILTER)
}

// PriorityScoreFilter passes genes whose phenotype score is at least the threshold.
// It only makes sense after prioritisation.
type PriorityScoreFilter struct {
	minScore float64
}

func NewPriorityScoreFilter(minScore float64) (PriorityScoreFilter, error) {
	if minScore < 0 || minScore > 1 {
		return PriorityScoreFilter{}, domain.NewValidationError("min_priority_score", "must be between 0 and 1", minScore, domain.ErrInvalidFilter)
	}
	return PriorityScoreFilter{minScore: minScore}, nil
}

func (f PriorityScoreFilter) FilterType() domain.FilterType { return domain.PRIORITY_SCORE_FILTER }

func (f PriorityScoreFilter) RunFilter(g *domain.Gene) domain.FilterResult {
	return domain.ResultOf(domain.PRIORITY_SCORE_FILTER, g.PriorityScore() >= f.minScore)
}

// EntrezGeneIDFilter passes genes whose Entrez id is in the configured set.
type EntrezGeneIDFilter struct {
	ids map[int]struct{}
}

func NewEntrezGeneIDFilter(ids []int) EntrezGeneIDFilter {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return EntrezGeneIDFilter{ids: set}
}

func (f EntrezGeneIDFilter) FilterType() domain.FilterType { return domain.ENTREZ_GENE_ID_FILTER }

func (f EntrezGeneIDFilter) RunFilter(g *domain.Gene) domain.FilterResult {
	_, ok := f.ids[g.EntrezGeneID()]
	return domain.ResultOf(domain.ENTREZ_GENE_ID_FILTER, ok)
}
