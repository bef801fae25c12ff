// Package solve evaluates parsed set-combination queries against a data
// provider. Evaluation is a deterministic post-order walk: each leaf runs
// a bounded breadth-first traversal of the provider graph, inner nodes
// combine resolved sets with bitmap algebra, and every solve owns its own
// memo table and interner so solves are independent and safely
// concurrent-capable.
package solve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/catsieve/internal/provider"
	"github.com/agentic-research/catsieve/internal/query"
)

// namespaceCategory is the category namespace; only category pages are
// expanded further when walking membership edges.
const namespaceCategory = 14

// Solve evaluates root against p under the given limits and returns the
// three-outcome result. Provider failures are hard errors; cycles, safety
// caps and unsupported modifiers degrade the outcome to warnings on a
// best-effort set. Cancel ctx to abort a long-running solve.
func Solve(ctx context.Context, root query.Node, p provider.Provider, limits Limits) *Result {
	limits = limits.normalized()
	if limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.Timeout)
		defer cancel()
	}

	s := &solver{
		provider: p,
		limits:   limits,
		interner: newInterner(),
		memo:     make(map[string]*roaring.Bitmap),
	}

	set, err := s.eval(ctx, root)
	if err != nil {
		return &Result{Status: StatusErr, Err: err}
	}

	res := &Result{
		Status:   StatusOK,
		Pages:    s.interner.materialize(set),
		Warnings: s.warnings,
		Pairs:    s.pairs,
	}
	if len(res.Warnings) > 0 {
		res.Status = StatusWarn
	}
	return res
}

// solver is the per-solve state: interner, memo table, accumulated
// warnings and provenance. Never shared across solves.
type solver struct {
	provider provider.Provider
	limits   Limits
	interner *interner
	memo     map[string]*roaring.Bitmap // structural node key → resolved set
	warnings []Warning
	pairs    []PagePair
	visited  int // pages charged against limits.MaxPages
	capHit   bool
}

func (s *solver) warn(kind WarningKind, node query.Node, format string, args ...any) {
	s.warnings = append(s.warnings, Warning{
		Kind:    kind,
		Node:    node.Key(),
		Message: fmt.Sprintf(format, args...),
	})
}

// eval resolves a subtree to a bitmap. Returned bitmaps may be memo-owned
// and must not be mutated by callers; binary operations clone before
// combining.
func (s *solver) eval(ctx context.Context, n query.Node) (*roaring.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch v := n.(type) {
	case *query.Leaf:
		if set, ok := s.memo[v.Key()]; ok {
			return set, nil
		}
		set, err := s.traverseLeaf(ctx, v)
		if err != nil {
			return nil, err
		}
		s.memo[v.Key()] = set
		return set, nil

	case *query.Modifier:
		if set, ok := s.memo[v.Key()]; ok {
			return set, nil
		}
		child, err := s.eval(ctx, v.Child)
		if err != nil {
			return nil, err
		}
		set, err := s.applyModifier(ctx, v, child)
		if err != nil {
			return nil, err
		}
		s.memo[v.Key()] = set
		return set, nil

	case *query.Binary:
		return s.evalBinary(ctx, v)

	case *query.Negate:
		// The parser only emits Negate as a direct operand of an
		// intersection or difference, where evalBinary folds it away.
		return nil, fmt.Errorf("internal: negation outside intersection or difference reached the solver: %s", n.Key())
	}
	return nil, fmt.Errorf("internal: unknown expression node %T", n)
}

// evalBinary resolves both children fully before combining — no lazy
// short-circuiting, so provider rate-limit costs are paid deterministically
// regardless of operand contents. A negated right operand never
// materializes a complement: A & !B and A - !B collapse to ANDNOT and AND.
func (s *solver) evalBinary(ctx context.Context, b *query.Binary) (*roaring.Bitmap, error) {
	rightChild := b.Right
	negated := false
	if neg, ok := b.Right.(*query.Negate); ok {
		rightChild = neg.Child
		negated = true
	}

	left, err := s.eval(ctx, b.Left)
	if err != nil {
		return nil, err
	}
	right, err := s.eval(ctx, rightChild)
	if err != nil {
		return nil, err
	}

	out := left.Clone()
	switch b.Op {
	case query.OpUnion:
		out.Or(right)
	case query.OpIntersect:
		if negated {
			out.AndNot(right) // A ∩ ¬B = A \ B
		} else {
			out.And(right)
		}
	case query.OpDifference:
		if negated {
			out.And(right) // A \ ¬B = A ∩ B
		} else {
			out.AndNot(right)
		}
	default:
		return nil, fmt.Errorf("internal: unknown operator %v", b.Op)
	}
	return out, nil
}

// traverseLeaf runs a bounded BFS from the leaf's root along its
// direction. A per-traversal visited set cuts cycles (category graphs
// contain them); the first revisit per leaf is recorded as a warning.
// Depth is bounded by min(leaf depth, safety cap), total visits by the
// solve-wide page budget.
func (s *solver) traverseLeaf(ctx context.Context, leaf *query.Leaf) (*roaring.Bitmap, error) {
	result := roaring.New()
	if s.capHit {
		// Budget already spent by an earlier leaf; everything from here
		// on is best-effort empty.
		return result, nil
	}

	root, err := s.provider.Resolve(ctx, leaf.Title)
	if err != nil {
		return nil, fmt.Errorf("resolve leaf %s: %w", leaf.Key(), err)
	}

	depthCap := s.limits.MaxDepth
	if leaf.Depth != query.DepthUnbounded && leaf.Depth < depthCap {
		depthCap = leaf.Depth
	}
	dir := mapDirection(leaf.Dir)

	visited := roaring.New()
	visited.Add(s.interner.intern(root))
	cycleWarned := false

	frontier := []provider.Page{root}
	for depth := 1; depth <= depthCap && len(frontier) > 0; depth++ {
		var next []provider.Page
		for _, pg := range frontier {
			cont := ""
			for {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				members, nextCont, err := s.provider.Members(ctx, pg.Title, dir, cont)
				if err != nil {
					// A page discovered mid-traversal may have vanished
					// (or be a red link); only the leaf root itself is
					// required to exist.
					if errors.Is(err, provider.ErrNotFound) && depth > 1 {
						break
					}
					return nil, fmt.Errorf("members of %q (%s): %w", pg.Title, dir, err)
				}

				for _, mp := range members {
					id := s.interner.intern(mp)
					if visited.Contains(id) {
						if !cycleWarned {
							s.warn(CycleDetected, leaf, "already visited %q; branch cut", mp.Title)
							cycleWarned = true
						}
						continue
					}
					if s.visited >= s.limits.MaxPages {
						if !s.capHit {
							s.warn(LimitExceeded, leaf, "page budget %d exhausted; result is partial", s.limits.MaxPages)
							s.capHit = true
						}
						return result, nil
					}
					visited.Add(id)
					s.visited++
					result.Add(id)
					s.pairs = append(s.pairs, PagePair{Source: pg, Target: mp, Dir: dir, Depth: depth})
					if depth < depthCap && expandable(mp, leaf.Dir) {
						next = append(next, mp)
					}
				}

				if nextCont == "" {
					break
				}
				cont = nextCont
			}
		}
		frontier = next
	}
	return result, nil
}

// expandable reports whether traversal recurses through a discovered page.
// Membership edges only recurse through categories; link edges recurse
// through any page.
func expandable(p provider.Page, dir query.Direction) bool {
	switch dir {
	case query.DirSub, query.DirSuper:
		return p.Namespace == namespaceCategory
	default:
		return true
	}
}

func mapDirection(d query.Direction) provider.Direction {
	switch d {
	case query.DirSuper:
		return provider.Super
	case query.DirLinksIn:
		return provider.LinksIn
	case query.DirLinksOut:
		return provider.LinksOut
	default:
		return provider.Sub
	}
}

// applyModifier filters an already-resolved set. Modifiers that need only
// traversal metadata (namespace, title) are pure; those needing provider
// attributes degrade to a ModifierUnsupported warning with the input set
// unchanged when the provider cannot supply them.
func (s *solver) applyModifier(ctx context.Context, m *query.Modifier, set *roaring.Bitmap) (*roaring.Bitmap, error) {
	params := make(map[string]query.Param, len(m.Params))
	for _, p := range m.Params {
		params[p.Name] = p
	}

	switch m.Name {
	case "namespace":
		ns := params["ns"].Num
		return s.filter(set, func(p provider.Page) bool { return p.Namespace == ns }), nil

	case "titlematch":
		pattern := params["pattern"].Str
		return s.filter(set, func(p provider.Page) bool {
			return strings.Contains(p.Title, pattern)
		}), nil

	case "redirect":
		only := params["only"].Bool
		return s.filterByAttrs(ctx, m, set, func(a *provider.Attributes) bool {
			return a.Redirect == only
		})

	case "quality":
		minScore := params["min"].Num
		missing := false
		out, err := s.filterByAttrs(ctx, m, set, func(a *provider.Attributes) bool {
			if !a.HasQuality {
				// Keep pages without assessment data rather than silently
				// dropping them; reported once below.
				missing = true
				return true
			}
			return a.Quality >= minScore
		})
		if err == nil && missing {
			s.warn(ModifierUnsupported, m, "some pages have no quality data and were kept unfiltered")
		}
		return out, err
	}
	return nil, fmt.Errorf("internal: modifier %q validated at parse time but unknown to the solver", m.Name)
}

func (s *solver) filter(set *roaring.Bitmap, keep func(provider.Page) bool) *roaring.Bitmap {
	out := roaring.New()
	it := set.Iterator()
	for it.HasNext() {
		id := it.Next()
		if keep(s.interner.page(id)) {
			out.Add(id)
		}
	}
	return out
}

// filterByAttrs is filter with per-page provider attributes. If the
// provider has no attribute capability at all, the set is returned
// unmodified with a warning — partial information beats total failure.
func (s *solver) filterByAttrs(ctx context.Context, m *query.Modifier, set *roaring.Bitmap, keep func(*provider.Attributes) bool) (*roaring.Bitmap, error) {
	out := roaring.New()
	it := set.Iterator()
	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := it.Next()
		pg := s.interner.page(id)
		attrs, err := s.provider.Attributes(ctx, pg)
		if err != nil {
			if errors.Is(err, provider.ErrAttrsUnsupported) {
				s.warn(ModifierUnsupported, m, "provider supplies no attributes; set left unmodified")
				return set.Clone(), nil
			}
			return nil, fmt.Errorf("attributes of %q: %w", pg.Title, err)
		}
		if keep(attrs) {
			out.Add(id)
		}
	}
	return out, nil
}
