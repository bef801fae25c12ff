package solve

import "time"

// Limits bounds the worst-case cost of one solve, independent of anything
// the query itself asks for. A leaf's own depth limit is honored only up
// to MaxDepth; MaxPages caps total pages visited across the whole solve.
type Limits struct {
	// MaxDepth is the safety cap on per-leaf traversal depth.
	MaxDepth int
	// MaxPages is the safety cap on pages visited per solve. Hitting it
	// degrades the outcome to a warning with a best-effort partial set.
	MaxPages int
	// Timeout, when non-zero, is applied as a context deadline on the
	// solve. Expiry is equivalent to external cancellation.
	Timeout time.Duration
}

// DefaultLimits are conservative bounds suitable for interactive use.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth: 8,
		MaxPages: 100000,
		Timeout:  5 * time.Minute,
	}
}

// normalized fills zero fields with defaults so a partially specified
// Limits never means "unlimited".
func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxPages <= 0 {
		l.MaxPages = d.MaxPages
	}
	if l.Timeout <= 0 {
		l.Timeout = d.Timeout
	}
	return l
}
