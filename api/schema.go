// Package api holds the JSON boundary types for driving catsieve from
// the outside: a solve request in, a three-outcome solve response out.
// The types are plain data so embedders can marshal them without pulling
// in the solver.
package api

// SolveRequest asks for one query evaluation.
type SolveRequest struct {
	// Host is the wiki to query, e.g. "https://en.wikipedia.org/w/api.php".
	// Empty means the configured default.
	Host string `json:"host,omitempty"`
	// Query is the set-combination expression to evaluate.
	Query string `json:"query"`
	// Limits overrides the configured solver bounds (optional).
	Limits *Limits `json:"limits,omitempty"`
}

// Limits mirrors the solver's safety bounds. Zero fields mean defaults.
type Limits struct {
	MaxDepth       int `json:"max_depth,omitempty"`
	MaxPages       int `json:"max_pages,omitempty"`
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// SolveResponse is the outcome of one request.
type SolveResponse struct {
	// Status is "ok", "warn", or "error".
	Status string `json:"status"`
	// Pages is the resolved set, sorted by title. Present for ok and warn.
	Pages []Page `json:"pages,omitempty"`
	// Warnings accompany a "warn" status.
	Warnings []Warning `json:"warnings,omitempty"`
	// Error accompanies an "error" status.
	Error string `json:"error,omitempty"`
}

// Page is one member of a resolved set.
type Page struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Namespace int    `json:"namespace"`
}

// Warning is one non-fatal anomaly from a solve.
type Warning struct {
	// Kind is "cycle-detected", "limit-exceeded", or "modifier-unsupported".
	Kind string `json:"kind"`
	// Node is the canonical form of the expression node the warning arose at.
	Node string `json:"node"`
	// Message is human-readable detail.
	Message string `json:"message"`
}
