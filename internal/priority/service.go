// Package priority scores genes by the phenotype similarity of their disease and
// model-organism models to the patient's phenotype, and ranks them.
package priority

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/phenorank/internal/catalog"
	"github.com/phenorank/internal/domain"
	"github.com/phenorank/internal/ontology"
)

// Service computes PriorityResults from a read-only ontology index and model
// catalog. It never mutates them, so one Service can score genes concurrently.
type Service struct {
	index   *ontology.Index
	catalog *catalog.Catalog
	policy  domain.PriorityPolicy
	workers int
	logger  *logrus.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers bounds the number of genes scored concurrently by ScoreGenes.
func WithWorkers(workers int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.workers = workers
		}
	}
}

// NewService creates a priority service. An empty combination policy means MAX.
func NewService(index *ontology.Index, models *catalog.Catalog, policy domain.PriorityPolicy, logger *logrus.Logger, opts ...Option) *Service {
	if policy.Combination == "" {
		policy.Combination = domain.MAX_ORGANISM
	}
	s := &Service{
		index:   index,
		catalog: models,
		policy:  policy,
		workers: runtime.GOMAXPROCS(0),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the phenotype score of one gene. Every model of every organism is
// scored and the best model per organism kept; the first of equally scoring models
// wins. The per-organism scores are then combined by the configured policy. A gene
// without query terms or without any model gets the no-evidence result.
func (s *Service) Score(gene domain.GeneIdentifier, queryIDs []string) domain.PriorityResult {
	if len(queryIDs) == 0 {
		return domain.NoEvidence(gene)
	}

	bestByOrganism := make(map[domain.Organism]domain.ModelScore)
	for _, organism := range domain.Organisms {
		var best *domain.ModelScore
		for _, model := range s.catalog.ModelsFor(gene, organism) {
			scored := s.index.ScoreModel(model, queryIDs)
			if best == nil || scored.Score > best.Score {
				best = &scored
			}
		}
		if best != nil {
			bestByOrganism[organism] = *best
		}
	}
	if len(bestByOrganism) == 0 {
		return domain.NoEvidence(gene)
	}

	perOrganism := make(map[domain.Organism]float64, len(bestByOrganism))
	for organism, best := range bestByOrganism {
		perOrganism[organism] = best.Score
	}

	bestOrganism := topOrganism(perOrganism)
	bestModel := bestByOrganism[bestOrganism]

	score := perOrganism[bestOrganism]
	if s.policy.Combination == domain.WEIGHTED_ORGANISM {
		score = s.weightedScore(perOrganism)
	}

	return domain.PriorityResult{
		Gene:        gene,
		Score:       score,
		HasEvidence: true,
		BestModel:   &bestModel,
		PerOrganism: perOrganism,
	}
}

// topOrganism returns the organism with the highest score, the earliest in
// domain.Organisms on ties.
func topOrganism(perOrganism map[domain.Organism]float64) domain.Organism {
	var top domain.Organism
	topScore := -1.0
	for _, organism := range domain.Organisms {
		score, ok := perOrganism[organism]
		if ok && score > topScore {
			top, topScore = organism, score
		}
	}
	return top
}

// weightedScore is sum(w*s)/sum(w) over every organism; organisms without models
// contribute a score of 0.
func (s *Service) weightedScore(perOrganism map[domain.Organism]float64) float64 {
	var weighted, total float64
	for _, organism := range domain.Organisms {
		w := s.policy.Weight(organism)
		weighted += w * perOrganism[organism]
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// ScoreGenes scores the genes concurrently. The results are aligned with genes.
func (s *Service) ScoreGenes(ctx context.Context, genes []domain.GeneIdentifier, queryIDs []string) ([]domain.PriorityResult, error) {
	start := time.Now()
	results := make([]domain.PriorityResult, len(genes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, gene := range genes {
		i, gene := i, gene
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Score(gene, queryIDs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gene scoring cancelled: %w", err)
	}

	withEvidence := 0
	for _, result := range results {
		if result.HasEvidence {
			withEvidence++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"genes":         len(genes),
		"with_evidence": withEvidence,
		"query_terms":   len(queryIDs),
		"combination":   s.policy.Combination,
		"duration":      time.Since(start),
	}).Info("Phenotype scoring complete")

	return results, nil
}

// Prioritise scores the genes and attaches each gene's result.
func (s *Service) Prioritise(ctx context.Context, genes []*domain.Gene, queryIDs []string) error {
	identifiers := make([]domain.GeneIdentifier, len(genes))
	for i, gene := range genes {
		identifiers[i] = gene.Identifier()
	}
	results, err := s.ScoreGenes(ctx, identifiers, queryIDs)
	if err != nil {
		return err
	}
	for i, gene := range genes {
		gene.SetPriorityResult(results[i])
	}
	return nil
}

// Rank sorts genes in place: genes passing all filters first, then by phenotype
// score descending, then by symbol. The sort is stable.
func Rank(genes []*domain.Gene) {
	sort.SliceStable(genes, func(i, j int) bool {
		a, b := genes[i], genes[j]
		if a.PassedFilters() != b.PassedFilters() {
			return a.PassedFilters()
		}
		if a.PriorityScore() != b.PriorityScore() {
			return a.PriorityScore() > b.PriorityScore()
		}
		return a.Symbol() < b.Symbol()
	})
}
