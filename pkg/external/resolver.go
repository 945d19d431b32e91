package external

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/domain"
)

// CachedGeneResolver resolves gene symbols through an in-memory LRU, then an
// optional shared IdentifierCache, then the upstream resolver.
type CachedGeneResolver struct {
	upstream domain.GeneResolver

	memoryCache *lru.Cache[string, domain.GeneIdentifier] // Tier 1
	sharedCache domain.IdentifierCache                    // Tier 2, may be nil

	batchSemaphore chan struct{}

	logger  *logrus.Logger
	stats   CacheStats
	statsMu sync.Mutex
}

// CacheStats represents cache performance statistics
type CacheStats struct {
	MemoryHits    int64     `json:"memory_hits"`
	MemoryMisses  int64     `json:"memory_misses"`
	SharedHits    int64     `json:"shared_hits"`
	SharedMisses  int64     `json:"shared_misses"`
	ExternalCalls int64     `json:"external_calls"`
	TotalRequests int64     `json:"total_requests"`
	ErrorCount    int64     `json:"error_count"`
	LastReset     time.Time `json:"last_reset"`
}

// ResolverConfig configures a CachedGeneResolver.
type ResolverConfig struct {
	MaxMemorySize  int
	MaxConcurrency int
}

// NewCachedGeneResolver wraps upstream with the cache tiers. shared may be nil.
func NewCachedGeneResolver(config ResolverConfig, upstream domain.GeneResolver, shared domain.IdentifierCache, logger *logrus.Logger) (*CachedGeneResolver, error) {
	if config.MaxMemorySize <= 0 {
		config.MaxMemorySize = 10000
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}

	memoryCache, err := lru.New[string, domain.GeneIdentifier](config.MaxMemorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &CachedGeneResolver{
		upstream:       upstream,
		memoryCache:    memoryCache,
		sharedCache:    shared,
		batchSemaphore: make(chan struct{}, config.MaxConcurrency),
		logger:         logger,
		stats:          CacheStats{LastReset: time.Now()},
	}, nil
}

func normalizeGeneSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ResolveGene implements domain.GeneResolver. Shared cache failures are logged and
// fall through to the upstream resolver.
func (r *CachedGeneResolver) ResolveGene(ctx context.Context, symbol string) (domain.GeneIdentifier, error) {
	r.count(func(s *CacheStats) { s.TotalRequests++ })

	key := normalizeGeneSymbol(symbol)
	if key == "" {
		r.count(func(s *CacheStats) { s.ErrorCount++ })
		return domain.GeneIdentifier{}, fmt.Errorf("gene symbol cannot be empty")
	}

	if id, ok := r.memoryCache.Get(key); ok {
		r.count(func(s *CacheStats) { s.MemoryHits++ })
		return id, nil
	}
	r.count(func(s *CacheStats) { s.MemoryMisses++ })

	if r.sharedCache != nil {
		id, ok, err := r.sharedCache.Get(ctx, key)
		if err != nil {
			r.logger.WithError(err).WithField("gene_symbol", key).Warn("Shared gene cache lookup failed")
		}
		if ok {
			r.count(func(s *CacheStats) { s.SharedHits++ })
			r.memoryCache.Add(key, id)
			return id, nil
		}
		r.count(func(s *CacheStats) { s.SharedMisses++ })
	}

	r.count(func(s *CacheStats) { s.ExternalCalls++ })
	id, err := r.upstream.ResolveGene(ctx, symbol)
	if err != nil {
		r.count(func(s *CacheStats) { s.ErrorCount++ })
		return domain.GeneIdentifier{}, fmt.Errorf("failed to resolve gene %s: %w", key, err)
	}

	r.memoryCache.Add(key, id)
	if r.sharedCache != nil {
		if err := r.sharedCache.Set(ctx, key, id); err != nil {
			r.logger.WithError(err).WithField("gene_symbol", key).Warn("Shared gene cache store failed")
		}
	}

	r.logger.WithFields(logrus.Fields{
		"gene_symbol": key,
		"entrez_id":   id.EntrezID(),
		"hgnc_id":     id.HGNCID(),
	}).Debug("Resolved gene identifier")

	return id, nil
}

// BatchResolve resolves symbols concurrently. Symbols that fail are left out of the
// result and returned in the error map.
func (r *CachedGeneResolver) BatchResolve(ctx context.Context, symbols []string) (map[string]domain.GeneIdentifier, map[string]error) {
	results := make(map[string]domain.GeneIdentifier, len(symbols))
	failures := make(map[string]error)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			select {
			case r.batchSemaphore <- struct{}{}:
				defer func() { <-r.batchSemaphore }()
			case <-ctx.Done():
				mu.Lock()
				failures[symbol] = ctx.Err()
				mu.Unlock()
				return
			}

			id, err := r.ResolveGene(ctx, symbol)

			mu.Lock()
			if err != nil {
				failures[symbol] = err
			} else {
				results[symbol] = id
			}
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	r.logger.WithFields(logrus.Fields{
		"batch_size": len(symbols),
		"resolved":   len(results),
		"failed":     len(failures),
	}).Info("Batch gene resolution complete")

	return results, failures
}

// Invalidate drops symbol from the memory tier.
func (r *CachedGeneResolver) Invalidate(symbol string) {
	r.memoryCache.Remove(normalizeGeneSymbol(symbol))
}

// Stats returns a snapshot of the cache statistics.
func (r *CachedGeneResolver) Stats() CacheStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

func (r *CachedGeneResolver) count(update func(*CacheStats)) {
	r.statsMu.Lock()
	update(&r.stats)
	r.statsMu.Unlock()
}
