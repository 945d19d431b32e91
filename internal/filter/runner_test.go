package filter

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenorank/internal/domain"
)

// stubFilter returns a fixed outcome and counts its calls.
type stubFilter struct {
	filterType domain.FilterType
	result     func(*domain.VariantEvaluation) domain.FilterResult
	calls      atomic.Int64
}

func (f *stubFilter) FilterType() domain.FilterType { return f.filterType }

func (f *stubFilter) RunFilter(v *domain.VariantEvaluation) domain.FilterResult {
	f.calls.Add(1)
	return f.result(v)
}

func passing(ft domain.FilterType) *stubFilter {
	return &stubFilter{filterType: ft, result: func(*domain.VariantEvaluation) domain.FilterResult { return domain.Pass(ft) }}
}

func failing(ft domain.FilterType) *stubFilter {
	return &stubFilter{filterType: ft, result: func(*domain.VariantEvaluation) domain.FilterResult { return domain.Fail(ft) }}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

func newVariantRunner(policy domain.FilterPolicy) *Runner[*domain.VariantEvaluation] {
	return NewRunner[*domain.VariantEvaluation](policy, 4, testLogger())
}

func TestRunner_IntervalScenario(t *testing.T) {
	variants := []*domain.VariantEvaluation{
		variantAt(7, 155595610),
		variantAt(7, 155595570),
		variantAt(3, 155595610),
		variantAt(7, 155604830),
	}

	runner := newVariantRunner(domain.NON_DESTRUCTIVE)
	returned := runner.RunFilter(NewIntervalFilter(searchInterval), variants)

	require.Len(t, returned, 4)
	expected := []bool{true, false, false, false}
	for i, v := range returned {
		assert.Same(t, variants[i], v)
		assert.Equal(t, expected[i], v.PassedFilters(), "variant %d", i)
		assert.True(t, v.HasFilterResult(domain.INTERVAL_FILTER))
	}
}

func TestRunner_NonDestructive(t *testing.T) {
	variants := []*domain.VariantEvaluation{variantAt(1, 100), variantAt(1, 200)}
	quality := failing(domain.QUALITY_FILTER)
	frequency := passing(domain.FREQUENCY_FILTER)

	runner := newVariantRunner(domain.NON_DESTRUCTIVE)
	returned := runner.Run([]VariantFilter{quality, frequency}, variants)

	assert.Equal(t, variants, returned)
	for _, v := range returned {
		assert.False(t, v.PassedFilters())
		assert.True(t, v.FailedFilter(domain.QUALITY_FILTER))
		assert.True(t, v.PassedFilter(domain.FREQUENCY_FILTER), "later filters still run")
	}
	assert.EqualValues(t, 2, frequency.calls.Load())
}

func TestRunner_Destructive(t *testing.T) {
	variant := variantAt(1, 100)
	quality := failing(domain.QUALITY_FILTER)
	frequency := passing(domain.FREQUENCY_FILTER)

	runner := newVariantRunner(domain.DESTRUCTIVE)
	returned := runner.Run([]VariantFilter{quality, frequency}, []*domain.VariantEvaluation{variant})

	require.Len(t, returned, 1)
	assert.True(t, variant.FailedFilter(domain.QUALITY_FILTER))
	assert.False(t, variant.HasFilterResult(domain.FREQUENCY_FILTER))
	assert.EqualValues(t, 0, frequency.calls.Load())
}

func TestRunner_SkipsAlreadyFailing(t *testing.T) {
	alreadyFailed := variantAt(1, 100)
	alreadyFailed.AddFilterResult(domain.Fail(domain.INTERVAL_FILTER))
	before := alreadyFailed.FilterResults()

	fresh := variantAt(1, 200)
	quality := passing(domain.QUALITY_FILTER)

	runner := newVariantRunner(domain.NON_DESTRUCTIVE)
	returned := runner.Run([]VariantFilter{quality}, []*domain.VariantEvaluation{alreadyFailed, fresh})

	require.Len(t, returned, 2)
	assert.Equal(t, before, alreadyFailed.FilterResults())
	assert.True(t, fresh.PassedFilter(domain.QUALITY_FILTER))
	assert.EqualValues(t, 1, quality.calls.Load())
}

func TestRunner_NotRunResultsAreNotAttached(t *testing.T) {
	variant := variantAt(1, 100)
	effect := NewVariantEffectFilter([]string{"SYNONYMOUS_VARIANT"})

	runner := newVariantRunner(domain.NON_DESTRUCTIVE)
	runner.RunFilter(effect, []*domain.VariantEvaluation{variant})

	assert.Empty(t, variant.FilterResults())
	assert.True(t, variant.PassedFilters())
}

func TestRunner_RunParallelMatchesSequential(t *testing.T) {
	build := func() []*domain.VariantEvaluation {
		variants := make([]*domain.VariantEvaluation, 0, 200)
		for i := 0; i < 200; i++ {
			v := variantAt(7, searchInterval.Start-100+i*100)
			v.Quality = float64(i % 40)
			variants = append(variants, v)
		}
		return variants
	}
	quality, err := NewQualityFilter(20)
	require.NoError(t, err)
	filters := []VariantFilter{NewIntervalFilter(searchInterval), quality}

	runner := newVariantRunner(domain.NON_DESTRUCTIVE)
	sequential := runner.Run(filters, build())
	parallel, err := runner.RunParallel(context.Background(), filters, build())
	require.NoError(t, err)

	require.Len(t, parallel, len(sequential))
	for i := range sequential {
		assert.Equal(t, sequential[i].Key(), parallel[i].Key())
		assert.Equal(t, sequential[i].FilterResults(), parallel[i].FilterResults())
	}
}

func TestRunner_RunParallelRepanics(t *testing.T) {
	exploding := &stubFilter{
		filterType: domain.QUALITY_FILTER,
		result: func(v *domain.VariantEvaluation) domain.FilterResult {
			if v.Position == 300 {
				panic("quality missing")
			}
			return domain.Pass(domain.QUALITY_FILTER)
		},
	}
	variants := []*domain.VariantEvaluation{variantAt(1, 100), variantAt(1, 200), variantAt(1, 300)}

	runner := newVariantRunner(domain.NON_DESTRUCTIVE)
	assert.PanicsWithValue(t, "quality missing", func() {
		_, _ = runner.RunParallel(context.Background(), []VariantFilter{exploding}, variants)
	})
}

func TestRunner_RunParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	variants := []*domain.VariantEvaluation{variantAt(1, 100)}
	quality := passing(domain.QUALITY_FILTER)

	runner := newVariantRunner(domain.NON_DESTRUCTIVE)
	returned, err := runner.RunParallel(ctx, []VariantFilter{quality}, variants)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, returned, 1)
	assert.EqualValues(t, 0, quality.calls.Load())
}

func TestRunner_GeneFilters(t *testing.T) {
	genes := []*domain.Gene{geneWith("FGFR2", "2263"), geneWith("SHH", "6469")}

	runner := NewRunner[*domain.Gene](domain.NON_DESTRUCTIVE, 0, testLogger())
	runner.Run([]GeneFilter{NewEntrezGeneIDFilter([]int{6469})}, genes)

	assert.False(t, genes[0].PassedFilters())
	assert.True(t, genes[1].PassedFilters())
	assert.Equal(t, domain.NON_DESTRUCTIVE, runner.Policy())
}
