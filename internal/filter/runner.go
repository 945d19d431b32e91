package filter

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/phenorank/internal/domain"
)

// Runner applies filters to entities. Entities are never removed, reordered or
// duplicated: the returned slice is the input slice with each entity's ledger
// extended by the results of the filters that ran.
//
// Entities that already failed a filter when a call starts are skipped. Under the
// NON_DESTRUCTIVE policy an entity that fails filter k still has filters k+1..n
// applied; under DESTRUCTIVE the remaining filters are skipped.
type Runner[T domain.Filterable] struct {
	policy  domain.FilterPolicy
	workers int
	logger  *logrus.Logger
}

// NewRunner creates a runner. A workers value below one uses GOMAXPROCS.
func NewRunner[T domain.Filterable](policy domain.FilterPolicy, workers int, logger *logrus.Logger) *Runner[T] {
	if !policy.IsValid() {
		policy = domain.NON_DESTRUCTIVE
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner[T]{policy: policy, workers: workers, logger: logger}
}

// Policy returns the runner's filter policy.
func (r *Runner[T]) Policy() domain.FilterPolicy {
	return r.policy
}

// Run applies the filter chain to every entity in order.
func (r *Runner[T]) Run(filters []Filter[T], entities []T) []T {
	start := time.Now()
	for _, entity := range entities {
		r.runEntity(filters, entity)
	}
	r.logRun(filters, entities, start)
	return entities
}

// RunFilter applies a single filter to every entity.
func (r *Runner[T]) RunFilter(filter Filter[T], entities []T) []T {
	return r.Run([]Filter[T]{filter}, entities)
}

// RunParallel applies the filter chain with a bounded pool of workers. Each entity is
// processed by exactly one worker, so ledgers need no locking. A panic raised by a
// filter is re-raised with the same value in the calling goroutine once the workers
// have stopped. Cancellation stops scheduling new entities and returns ctx.Err().
func (r *Runner[T]) RunParallel(ctx context.Context, filters []Filter[T], entities []T) ([]T, error) {
	start := time.Now()

	var (
		g          errgroup.Group
		panicOnce  sync.Once
		panicValue interface{}
		panicked   bool
	)
	g.SetLimit(r.workers)

	for _, entity := range entities {
		if ctx.Err() != nil {
			break
		}
		entity := entity
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					panicOnce.Do(func() {
						panicValue = p
						panicked = true
					})
				}
			}()
			if ctx.Err() != nil {
				return nil
			}
			r.runEntity(filters, entity)
			return nil
		})
	}
	_ = g.Wait()

	if panicked {
		panic(panicValue)
	}
	if err := ctx.Err(); err != nil {
		return entities, err
	}

	r.logRun(filters, entities, start)
	return entities, nil
}

func (r *Runner[T]) runEntity(filters []Filter[T], entity T) {
	if !entity.PassedFilters() {
		return
	}
	for _, f := range filters {
		if r.policy == domain.DESTRUCTIVE && !entity.PassedFilters() {
			return
		}
		entity.AddFilterResult(f.RunFilter(entity))
	}
}

func (r *Runner[T]) logRun(filters []Filter[T], entities []T, start time.Time) {
	passed := 0
	for _, entity := range entities {
		if entity.PassedFilters() {
			passed++
		}
	}
	r.logger.WithFields(logrus.Fields{
		"filters":  Types(filters),
		"policy":   r.policy,
		"entities": len(entities),
		"passed":   passed,
		"duration": time.Since(start),
	}).Info("Filtering complete")
}
