package diag

import "lien/internal/source"

// LimitReporter forwards at most max diagnostics and then goes silent.
// A limit of 0 means unlimited. Passes poll Exhausted to stop early in
// bounded-effort mode.
type LimitReporter struct {
	next  Reporter
	max   int
	count int
}

// NewLimitReporter wraps next with an emission cap; max 0 disables the cap.
func NewLimitReporter(next Reporter, max int) *LimitReporter {
	return &LimitReporter{next: next, max: max}
}

func (r *LimitReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil || r.Exhausted() {
		return
	}
	r.count++
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// Exhausted reports whether the cap has been reached.
func (r *LimitReporter) Exhausted() bool {
	return r != nil && r.max > 0 && r.count >= r.max
}

// Count returns the number of diagnostics forwarded so far.
func (r *LimitReporter) Count() int {
	if r == nil {
		return 0
	}
	return r.count
}
