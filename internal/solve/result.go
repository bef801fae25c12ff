package solve

import (
	"fmt"

	"github.com/agentic-research/catsieve/internal/provider"
)

// Status is the three-outcome result channel: full success, degraded
// success with warnings, or hard failure. Callers must branch on it
// explicitly — a degraded result is never silently a full success.
type Status int

const (
	// StatusOK means the set is complete and no anomalies occurred.
	StatusOK Status = iota
	// StatusWarn means the set is valid but best-effort; see Warnings.
	StatusWarn
	// StatusErr means no usable set was produced; see Err.
	StatusErr
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusErr:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// WarningKind classifies the non-fatal anomalies a solve can accumulate.
type WarningKind int

const (
	// CycleDetected: a traversal revisited a page; the branch was cut.
	CycleDetected WarningKind = iota
	// LimitExceeded: the safety cap stopped the solve early.
	LimitExceeded
	// ModifierUnsupported: a modifier lacked provider data and left its
	// input unfiltered (or partially unfiltered).
	ModifierUnsupported
)

func (k WarningKind) String() string {
	switch k {
	case CycleDetected:
		return "cycle-detected"
	case LimitExceeded:
		return "limit-exceeded"
	case ModifierUnsupported:
		return "modifier-unsupported"
	}
	return fmt.Sprintf("warning(%d)", int(k))
}

// Warning is one non-fatal anomaly, attached to an otherwise valid result.
// Node is the canonical form of the expression node it arose at.
type Warning struct {
	Kind    WarningKind
	Node    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at %s: %s", w.Kind, w.Node, w.Message)
}

// PagePair records a directed edge discovered during traversal: why Target
// ended up in a result. It is provenance bookkeeping, not set membership.
type PagePair struct {
	Source provider.Page
	Target provider.Page
	Dir    provider.Direction
	Depth  int // depth at discovery, root = 0
}

// Result is the outcome of one solve.
//
// Invariants: Err is non-nil iff Status is StatusErr; Warnings is
// non-empty iff Status is StatusWarn; Pages is sorted by title then ID.
type Result struct {
	Status   Status
	Pages    []provider.Page
	Warnings []Warning
	Pairs    []PagePair // provenance edges, in discovery order
	Err      error
}

// Titles returns the result page titles, preserving order.
func (r *Result) Titles() []string {
	out := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		out[i] = p.Title
	}
	return out
}
