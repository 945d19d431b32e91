package domain

// Filterable is anything the filter runner can evaluate: genes and variants.
type Filterable interface {
	AddFilterResult(result FilterResult) bool
	PassedFilters() bool
	PassedFilter(ft FilterType) bool
	FailedFilter(ft FilterType) bool
	FilterResults() []FilterResult
}

// FilterLedger records the outcome of every filter run over one entity. It only
// grows: results are never removed or replaced. A ledger is owned by the goroutine
// processing its entity and is not safe for concurrent writers.
type FilterLedger struct {
	results map[FilterType]FilterResult
}

// AddFilterResult attaches a result. Results that were not run are ignored, as is a
// second result for a filter type already present. It reports whether the result
// was attached.
func (l *FilterLedger) AddFilterResult(result FilterResult) bool {
	if !result.WasRun() {
		return false
	}
	if l.results == nil {
		l.results = make(map[FilterType]FilterResult)
	}
	if _, exists := l.results[result.FilterType()]; exists {
		return false
	}
	l.results[result.FilterType()] = result
	return true
}

// PassedFilters is true iff no attached result failed. It is derived on every call.
func (l *FilterLedger) PassedFilters() bool {
	for _, result := range l.results {
		if result.Failed() {
			return false
		}
	}
	return true
}

// PassedFilter reports whether a result of the given type was attached and passed.
func (l *FilterLedger) PassedFilter(ft FilterType) bool {
	result, ok := l.results[ft]
	return ok && result.Passed()
}

// FailedFilter reports whether a result of the given type was attached and failed.
func (l *FilterLedger) FailedFilter(ft FilterType) bool {
	result, ok := l.results[ft]
	return ok && result.Failed()
}

// HasFilterResult reports whether any result of the given type was attached.
func (l *FilterLedger) HasFilterResult(ft FilterType) bool {
	_, ok := l.results[ft]
	return ok
}

// FilterResults returns the attached results sorted by filter type.
func (l *FilterLedger) FilterResults() []FilterResult {
	types := make([]FilterType, 0, len(l.results))
	for ft := range l.results {
		types = append(types, ft)
	}
	SortFilterTypes(types)

	results := make([]FilterResult, 0, len(types))
	for _, ft := range types {
		results = append(results, l.results[ft])
	}
	return results
}

// PassedFilterTypes returns the types of the passing results, sorted.
func (l *FilterLedger) PassedFilterTypes() []FilterType {
	return l.typesWhere(FilterResult.Passed)
}

// FailedFilterTypes returns the types of the failing results, sorted.
func (l *FilterLedger) FailedFilterTypes() []FilterType {
	return l.typesWhere(FilterResult.Failed)
}

func (l *FilterLedger) typesWhere(keep func(FilterResult) bool) []FilterType {
	types := make([]FilterType, 0)
	for ft, result := range l.results {
		if keep(result) {
			types = append(types, ft)
		}
	}
	SortFilterTypes(types)
	return types
}

// FilterResultViews returns the serialisable form of the ledger.
func (l *FilterLedger) FilterResultViews() []FilterResultView {
	results := l.FilterResults()
	views := make([]FilterResultView, len(results))
	for i, result := range results {
		views[i] = result.View()
	}
	return views
}
