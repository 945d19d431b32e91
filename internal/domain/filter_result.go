package domain

import (
	"fmt"
)

// FilterResult is the immutable outcome of running one filter over one entity.
// A result that was not run carries no pass/fail information and is never attached
// to an entity.
type FilterResult struct {
	filterType FilterType
	wasRun     bool
	passed     bool
}

// Pass returns a passing result for the filter type.
func Pass(ft FilterType) FilterResult {
	return FilterResult{filterType: ft, wasRun: true, passed: true}
}

// Fail returns a failing result for the filter type.
func Fail(ft FilterType) FilterResult {
	return FilterResult{filterType: ft, wasRun: true, passed: false}
}

// NotRun returns a result for a filter that declined to evaluate the entity.
func NotRun(ft FilterType) FilterResult {
	return FilterResult{filterType: ft}
}

// ResultOf returns a passing or failing result depending on passed.
func ResultOf(ft FilterType, passed bool) FilterResult {
	if passed {
		return Pass(ft)
	}
	return Fail(ft)
}

func (r FilterResult) FilterType() FilterType { return r.filterType }
func (r FilterResult) WasRun() bool           { return r.wasRun }
func (r FilterResult) Passed() bool           { return r.wasRun && r.passed }
func (r FilterResult) Failed() bool           { return r.wasRun && !r.passed }

// Status returns PASS, FAIL or NOT_RUN.
func (r FilterResult) Status() string {
	switch {
	case !r.wasRun:
		return "NOT_RUN"
	case r.passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

func (r FilterResult) String() string {
	return fmt.Sprintf("%s:%s", r.filterType, r.Status())
}

// FilterResultView is the serialised form of a FilterResult.
type FilterResultView struct {
	FilterType FilterType `json:"filter_type"`
	Status     string     `json:"status"`
}

// View returns the serialisable form of the result.
func (r FilterResult) View() FilterResultView {
	return FilterResultView{FilterType: r.filterType, Status: r.Status()}
}
