// Package provider defines the data-provider boundary the solver evaluates
// queries against: a capability interface for resolving a page or category
// to its neighbors and attributes, with a transient-vs-permanent error
// taxonomy so callers can decide what is retryable.
//
// Concrete implementations — live MediaWiki API, SQLite snapshot, in-memory
// fixture — are swappable without touching the solver.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Direction selects which edges Members follows from a page.
type Direction int

const (
	// Sub returns category members (pages and subcategories).
	Sub Direction = iota
	// Super returns the categories a page belongs to.
	Super
	// LinksIn returns pages linking to the page.
	LinksIn
	// LinksOut returns pages the page links to.
	LinksOut
)

func (d Direction) String() string {
	switch d {
	case Sub:
		return "sub"
	case Super:
		return "super"
	case LinksIn:
		return "in"
	case LinksOut:
		return "out"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Page is a resolved wiki page: a stable opaque identifier plus display
// metadata. Equality and hashing are by ID only.
type Page struct {
	ID        string
	Title     string
	Namespace int
}

// Attributes are the per-page properties modifier evaluation needs.
// HasQuality is false when the provider has no assessment data for the
// page (quality is optional even on providers that otherwise support
// attributes).
type Attributes struct {
	Namespace      int
	Redirect       bool
	RedirectTarget string
	Quality        int
	HasQuality     bool
}

// Provider is the capability the solver consumes. All methods honor
// context cancellation; Members is paginated via an opaque continuation
// token ("" requests the first page, "" returned means exhausted).
type Provider interface {
	// Resolve maps a normalized title to its page, or ErrNotFound.
	Resolve(ctx context.Context, title string) (Page, error)

	// Members returns one batch of pages adjacent to title along dir.
	Members(ctx context.Context, title string, dir Direction, cont string) ([]Page, string, error)

	// Attributes returns per-page attributes, or ErrAttrsUnsupported if
	// this provider cannot supply them.
	Attributes(ctx context.Context, page Page) (*Attributes, error)
}

// ErrNotFound reports that a title names no page.
var ErrNotFound = errors.New("page not found")

// ErrAttrsUnsupported reports that a provider carries no attribute data.
var ErrAttrsUnsupported = errors.New("attributes not supported by provider")

// ErrorKind classifies provider failures for retry policy, which lives in
// the caller, never in the solver.
type ErrorKind int

const (
	// Transient failures (timeout, rate limit, 5xx) are retryable with backoff.
	Transient ErrorKind = iota
	// Permanent failures (not found, forbidden, malformed request) are not.
	Permanent
)

// Error wraps a provider failure with the operation and title it occurred
// on, so the orchestration layer can present it without re-deriving
// context.
type Error struct {
	Kind  ErrorKind
	Op    string // e.g. "members", "resolve", "attributes"
	Title string
	Err   error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Kind == Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider %s error: %s %q: %v", kind, e.Op, e.Title, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTransient wraps err as a retryable provider error.
func NewTransient(op, title string, err error) *Error {
	return &Error{Kind: Transient, Op: op, Title: title, Err: err}
}

// NewPermanent wraps err as a non-retryable provider error.
func NewPermanent(op, title string, err error) *Error {
	return &Error{Kind: Permanent, Op: op, Title: title, Err: err}
}

// IsTransient reports whether err is a provider error worth retrying.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == Transient
}
