package ontology

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/phenorank/internal/domain"
)

// ScoreModel scores a model against the query terms with the model organism's
// scoring method. For each query term the best edge into the model's phenotypes is
// compared with the best edge into the whole ontology. Query terms without any edge
// into the organism carry no information and are left out. The score is in [0,1].
func (idx *Index) ScoreModel(model domain.Model, queryIDs []string) domain.ModelScore {
	phenotypes := make(map[string]struct{}, len(model.PhenotypeIDs))
	for _, id := range model.PhenotypeIDs {
		phenotypes[id] = struct{}{}
	}

	var (
		best        stats.Float64Data
		theoretical stats.Float64Data
		bestMatches []domain.PhenotypeMatch
	)
	seen := make(map[string]struct{}, len(queryIDs))
	for _, queryID := range queryIDs {
		if _, dup := seen[queryID]; dup {
			continue
		}
		seen[queryID] = struct{}{}

		maxScore := idx.MaxScore(queryID, model.Organism)
		if maxScore <= 0 {
			continue
		}
		theoretical = append(theoretical, maxScore)

		match, ok := idx.BestMatchAmong(queryID, model.Organism, phenotypes)
		if !ok {
			best = append(best, 0)
			continue
		}
		best = append(best, match.Score)
		bestMatches = append(bestMatches, match)
	}

	score := 0.0
	if len(theoretical) > 0 {
		switch idx.ScoringMethod(model.Organism) {
		case domain.MEAN:
			score = meanScore(best, theoretical)
		default:
			score = maxMeanScore(best, theoretical)
		}
	}

	return domain.ModelScore{
		Model:       model,
		Score:       clamp(score),
		BestMatches: bestMatches,
	}
}

// meanScore is the mean over query terms of best/max.
func meanScore(best, theoretical stats.Float64Data) float64 {
	ratios := make(stats.Float64Data, len(best))
	for i := range best {
		ratios[i] = best[i] / theoretical[i]
	}
	mean, err := stats.Mean(ratios)
	if err != nil {
		return 0
	}
	return mean
}

// maxMeanScore averages the best score normalised by the best achievable score and
// the mean score normalised by the mean achievable score.
func maxMeanScore(best, theoretical stats.Float64Data) float64 {
	maxBest, err := stats.Max(best)
	if err != nil {
		return 0
	}
	maxTheoretical, err := stats.Max(theoretical)
	if err != nil || maxTheoretical == 0 {
		return 0
	}
	meanBest, err := stats.Mean(best)
	if err != nil {
		return 0
	}
	meanTheoretical, err := stats.Mean(theoretical)
	if err != nil || meanTheoretical == 0 {
		return 0
	}
	return 0.5*(maxBest/maxTheoretical) + 0.5*(meanBest/meanTheoretical)
}

func clamp(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	return math.Min(score, 1)
}
