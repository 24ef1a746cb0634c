package generator

import "time"

// BadgeResult is the outcome of generating one badge.
type BadgeResult struct {
	Name   string
	Output string
	// Degraded lists the fields rendered with their fallback value.
	Degraded []string
	// Unresolved lists placeholders left in the output because nothing filled them.
	Unresolved []string
	Duration   time.Duration
	Err        error
}

// Written reports whether the artifact was written.
func (r BadgeResult) Written() bool {
	return r.Err == nil
}

// Report summarizes a run, one result per badge in definition order.
type Report struct {
	Results []BadgeResult
}

// Failed returns the results of badges that were not written.
func (r *Report) Failed() []BadgeResult {
	var failed []BadgeResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Result returns the result for the named badge.
func (r *Report) Result(name string) (BadgeResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return BadgeResult{}, false
}
