// Package refresh runs configured page lists against a provider and
// publishes the ones whose membership changed. It owns the
// publish-or-skip policy around the solver's three-outcome result:
// a hard failure never overwrites a previously published list.
package refresh

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/catsieve/internal/provider"
	"github.com/agentic-research/catsieve/internal/query"
	"github.com/agentic-research/catsieve/internal/solve"
)

// Publisher is where refreshed lists go. Previous returns the titles
// published for the list so far (nil for a never-published list).
// Target is the destination page the list is maintained on; publishers
// that have no notion of one may ignore it.
type Publisher interface {
	Previous(ctx context.Context, list string) ([]string, error)
	Publish(ctx context.Context, list, target string, titles []string, warnings []solve.Warning) error
}

// List is one refreshable list.
type List struct {
	Name   string
	Query  string
	Target string // destination page, e.g. "User:Bot/Citrus"
	Limits solve.Limits
}

// Outcome reports what happened to one list during a run.
type Outcome struct {
	List      string
	Status    solve.Status
	Added     []string
	Removed   []string
	Published bool
	Err       error // parse, provider, or publish failure
}

const defaultConcurrency = 4

// Refresher evaluates lists concurrently against one provider.
type Refresher struct {
	provider    provider.Provider
	publisher   Publisher
	log         *zap.Logger
	concurrency int
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithLogger replaces the default no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Refresher) { r.log = log }
}

// WithConcurrency bounds how many lists are solved at once.
func WithConcurrency(n int) Option {
	return func(r *Refresher) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New returns a Refresher publishing through pub.
func New(p provider.Provider, pub Publisher, opts ...Option) *Refresher {
	r := &Refresher{
		provider:    p,
		publisher:   pub,
		log:         zap.NewNop(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run refreshes every list and returns one Outcome per list, in input
// order. A list's failure is recorded in its Outcome, not returned: one
// broken query must not stop the others. Run itself errors only on
// context cancellation.
func (r *Refresher) Run(ctx context.Context, lists []List) ([]Outcome, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("run", runID))
	log.Info("refresh started", zap.Int("lists", len(lists)))

	outcomes := make([]Outcome, len(lists))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, l := range lists {
		g.Go(func() error {
			outcomes[i] = r.refreshOne(ctx, log, l)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	log.Info("refresh finished")
	return outcomes, nil
}

func (r *Refresher) refreshOne(ctx context.Context, log *zap.Logger, l List) Outcome {
	out := Outcome{List: l.Name}
	log = log.With(zap.String("list", l.Name))

	root, err := query.Parse(l.Query)
	if err != nil {
		log.Error("query did not parse", zap.Error(err))
		out.Status = solve.StatusErr
		out.Err = err
		return out
	}

	res := solve.Solve(ctx, root, r.provider, l.Limits)
	out.Status = res.Status
	if res.Status == solve.StatusErr {
		// Keep whatever was published before rather than clobbering it
		// with a failed solve.
		log.Error("solve failed, keeping previous list", zap.Error(res.Err))
		out.Err = res.Err
		return out
	}
	for _, w := range res.Warnings {
		log.Warn("solve degraded",
			zap.String("kind", w.Kind.String()),
			zap.String("node", w.Node),
			zap.String("detail", w.Message))
	}

	titles := res.Titles()
	prev, err := r.publisher.Previous(ctx, l.Name)
	if err != nil {
		log.Error("previous list unavailable", zap.Error(err))
		out.Err = err
		return out
	}
	out.Added, out.Removed = diff(prev, titles)
	if prev != nil && len(out.Added) == 0 && len(out.Removed) == 0 {
		log.Info("list unchanged", zap.Int("pages", len(titles)))
		return out
	}

	if err := r.publisher.Publish(ctx, l.Name, l.Target, titles, res.Warnings); err != nil {
		log.Error("publish failed", zap.Error(err))
		out.Err = err
		return out
	}
	out.Published = true
	log.Info("list published",
		zap.Int("pages", len(titles)),
		zap.Int("added", len(out.Added)),
		zap.Int("removed", len(out.Removed)))
	return out
}

// diff returns what entered and left the list, both sorted.
func diff(prev, next []string) (added, removed []string) {
	in := make(map[string]bool, len(prev))
	for _, t := range prev {
		in[t] = true
	}
	for _, t := range next {
		if in[t] {
			delete(in, t)
		} else {
			added = append(added, t)
		}
	}
	for t := range in {
		removed = append(removed, t)
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
