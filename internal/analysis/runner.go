// Package analysis runs a complete prioritisation: variant filters, gene
// aggregation, gene filters, phenotype scoring, the priority-score filter and ranking.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/domain"
	"github.com/phenorank/internal/filter"
	"github.com/phenorank/internal/priority"
	"github.com/phenorank/internal/store"
)

// Results holds every gene and variant of an analysis. Genes are ranked; variants
// keep their input order. Nothing is removed by filtering.
type Results struct {
	HPOIDs     []string                    `json:"hpo_ids"`
	QueryTerms []domain.PhenotypeTerm      `json:"query_terms"`
	Filters    []domain.FilterType         `json:"filters"`
	Policy     domain.FilterPolicy         `json:"filter_policy"`
	Genes      []*domain.Gene              `json:"genes"`
	Variants   []*domain.VariantEvaluation `json:"variants"`
	Unassigned []*domain.VariantEvaluation `json:"-"`
	Duration   time.Duration               `json:"duration_ns"`
}

// PassedGenes returns the ranked genes that passed all filters.
func (r *Results) PassedGenes() []*domain.Gene {
	passed := make([]*domain.Gene, 0, len(r.Genes))
	for _, g := range r.Genes {
		if g.PassedFilters() {
			passed = append(passed, g)
		}
	}
	return passed
}

// Runner executes analyses against one store.
type Runner struct {
	store    store.Store
	resolver domain.GeneResolver
	workers  int
	policy   domain.FilterPolicy
	priority domain.PriorityPolicy
	logger   *logrus.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithResolver fills in missing gene identifiers from the symbol.
func WithResolver(resolver domain.GeneResolver) Option {
	return func(r *Runner) { r.resolver = resolver }
}

// WithWorkers bounds the parallel filter and scoring workers.
func WithWorkers(workers int) Option {
	return func(r *Runner) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithDefaults sets the filter policy and priority policy used when an analysis
// leaves them unset.
func WithDefaults(policy domain.FilterPolicy, priorityPolicy domain.PriorityPolicy) Option {
	return func(r *Runner) {
		if policy.IsValid() {
			r.policy = policy
		}
		r.priority = priorityPolicy
	}
}

// NewRunner creates an analysis runner.
func NewRunner(s store.Store, logger *logrus.Logger, opts ...Option) *Runner {
	r := &Runner{
		store:    s,
		workers:  runtime.GOMAXPROCS(0),
		policy:   domain.NON_DESTRUCTIVE,
		priority: domain.DefaultPriorityPolicy(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the analysis over the variants. Variants and genes are annotated in
// place and all of them are returned.
func (r *Runner) Run(ctx context.Context, a *domain.Analysis, variants []*domain.VariantEvaluation) (*Results, error) {
	start := time.Now()

	if err := a.Validate(); err != nil {
		return nil, err
	}
	for i, v := range variants {
		if v == nil {
			return nil, domain.NewValidationError(fmt.Sprintf("variants[%d]", i), "variant is null", nil, domain.ErrInvalidVariant)
		}
	}
	chain, err := filter.BuildChain(a.Filters)
	if err != nil {
		return nil, err
	}
	policy := a.FilterPolicy
	if policy == "" {
		policy = r.policy
	}
	priorityPolicy := a.Priority.WithDefaults(r.priority)

	logger := r.logger.WithFields(logrus.Fields{
		"hpo_ids":  len(a.HPOIDs),
		"variants": len(variants),
		"filters":  chain.Types(),
		"policy":   policy,
	})
	logger.Info("Starting analysis")

	// 1. Variant filters
	variantRunner := filter.NewRunner[*domain.VariantEvaluation](policy, r.workers, r.logger)
	if _, err := variantRunner.RunParallel(ctx, chain.VariantFilters, variants); err != nil {
		return nil, fmt.Errorf("variant filtering: %w", err)
	}

	// 2. Gene aggregation
	genes, unassigned := r.aggregate(ctx, variants)
	for _, g := range genes {
		g.SetInheritanceModes(domain.CompatibleInheritanceModes(g.PassedVariants()))
	}

	// 3. Gene filters; genes without a passing variant are already failing and skipped
	geneRunner := filter.NewRunner[*domain.Gene](policy, r.workers, r.logger)
	if _, err := geneRunner.RunParallel(ctx, chain.GeneFilters, genes); err != nil {
		return nil, fmt.Errorf("gene filtering: %w", err)
	}

	// 4. Phenotype scoring of the surviving genes
	queryTerms := make([]domain.PhenotypeTerm, 0, len(a.HPOIDs))
	if len(a.HPOIDs) > 0 {
		methods := make(map[domain.Organism]domain.ScoringMethod, len(domain.Organisms))
		for _, organism := range domain.Organisms {
			methods[organism] = priorityPolicy.ScoringMethod(organism)
		}
		resources, err := store.LoadResources(ctx, r.store, a.HPOIDs, methods, r.logger)
		if err != nil {
			return nil, err
		}
		queryTerms = resources.QueryTerms

		surviving := make([]*domain.Gene, 0, len(genes))
		for _, g := range genes {
			if g.PassedFilters() {
				surviving = append(surviving, g)
			}
		}
		service := priority.NewService(resources.Index, resources.Catalog, priorityPolicy, r.logger, priority.WithWorkers(r.workers))
		if err := service.Prioritise(ctx, surviving, a.HPOIDs); err != nil {
			return nil, err
		}
	}

	// 5. Priority-score filter
	if len(chain.PriorityFilters) > 0 {
		if _, err := geneRunner.RunParallel(ctx, chain.PriorityFilters, genes); err != nil {
			return nil, fmt.Errorf("priority filtering: %w", err)
		}
	}

	// 6. Ranking
	priority.Rank(genes)

	results := &Results{
		HPOIDs:     a.HPOIDs,
		QueryTerms: queryTerms,
		Filters:    chain.Types(),
		Policy:     policy,
		Genes:      genes,
		Variants:   variants,
		Unassigned: unassigned,
		Duration:   time.Since(start),
	}

	logger.WithFields(logrus.Fields{
		"genes":        len(genes),
		"passed_genes": len(results.PassedGenes()),
		"unassigned":   len(unassigned),
		"duration":     results.Duration,
	}).Info("Analysis complete")

	return results, nil
}

// aggregate groups variants into genes by Entrez id, or by symbol when the id is
// unknown, in first-seen order. Symbols without an id are resolved first when a
// resolver is set. Variants with neither id nor symbol are returned unassigned.
func (r *Runner) aggregate(ctx context.Context, variants []*domain.VariantEvaluation) ([]*domain.Gene, []*domain.VariantEvaluation) {
	resolved := r.resolveMissing(ctx, variants)

	var genes []*domain.Gene
	var unassigned []*domain.VariantEvaluation
	byKey := make(map[string]*domain.Gene)

	for _, v := range variants {
		id, ok := r.identifierFor(v, resolved)
		if !ok {
			unassigned = append(unassigned, v)
			continue
		}
		key := geneKey(id)
		g, exists := byKey[key]
		if !exists {
			g = domain.NewGene(id)
			byKey[key] = g
			genes = append(genes, g)
		}
		g.AddVariant(v)
	}
	return genes, unassigned
}

func geneKey(id domain.GeneIdentifier) string {
	if id.HasEntrezID() {
		return "entrez:" + strconv.Itoa(id.EntrezIDAsInt())
	}
	return "symbol:" + strings.ToUpper(id.GeneSymbol())
}

// identifierFor builds the variant's gene identifier. An unparsable Entrez id is
// logged and ignored.
func (r *Runner) identifierFor(v *domain.VariantEvaluation, resolved map[string]domain.GeneIdentifier) (domain.GeneIdentifier, bool) {
	symbol := strings.TrimSpace(v.GeneSymbol)
	entrezID := strings.TrimSpace(v.EntrezGeneID)

	if entrezID != "" {
		id, err := domain.NewGeneIdentifier(domain.GeneIdentifierFields{GeneID: entrezID, GeneSymbol: symbol, EntrezID: entrezID})
		if err == nil {
			return id, true
		}
		r.logger.WithFields(logrus.Fields{
			"variant":   v.Key(),
			"entrez_id": entrezID,
		}).WithError(err).Warn("Ignoring invalid Entrez gene id")
	}
	if symbol == "" {
		return domain.GeneIdentifier{}, false
	}
	if id, ok := resolved[strings.ToUpper(symbol)]; ok {
		return id, true
	}
	id, err := domain.NewGeneIdentifier(domain.GeneIdentifierFields{GeneSymbol: symbol})
	if err != nil {
		return domain.GeneIdentifier{}, false
	}
	return id, true
}

// batchResolver resolves many symbols concurrently.
type batchResolver interface {
	BatchResolve(ctx context.Context, symbols []string) (map[string]domain.GeneIdentifier, map[string]error)
}

// resolveMissing resolves the symbols of variants without a usable Entrez id.
// Failures are logged and leave the symbol-only identifier.
func (r *Runner) resolveMissing(ctx context.Context, variants []*domain.VariantEvaluation) map[string]domain.GeneIdentifier {
	resolved := make(map[string]domain.GeneIdentifier)
	if r.resolver == nil {
		return resolved
	}

	var symbols []string
	seen := make(map[string]struct{})
	for _, v := range variants {
		symbol := strings.TrimSpace(v.GeneSymbol)
		if symbol == "" {
			continue
		}
		if entrez := strings.TrimSpace(v.EntrezGeneID); entrez != "" {
			if n, err := strconv.Atoi(entrez); err == nil && n > 0 {
				continue
			}
		}
		key := strings.ToUpper(symbol)
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return resolved
	}

	if batch, ok := r.resolver.(batchResolver); ok {
		ids, failures := batch.BatchResolve(ctx, symbols)
		for symbol, id := range ids {
			resolved[strings.ToUpper(symbol)] = id
		}
		for symbol, err := range failures {
			r.logger.WithError(err).WithField("gene_symbol", symbol).Warn("Gene identifier resolution failed")
		}
		return resolved
	}

	for _, symbol := range symbols {
		id, err := r.resolver.ResolveGene(ctx, symbol)
		if err != nil {
			r.logger.WithError(err).WithField("gene_symbol", symbol).Warn("Gene identifier resolution failed")
			continue
		}
		resolved[strings.ToUpper(symbol)] = id
	}
	return resolved
}
