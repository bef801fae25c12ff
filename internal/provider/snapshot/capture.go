package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentic-research/catsieve/internal/provider"
)

const namespaceCategory = 14

// CaptureSpec names what to copy out of a source provider.
type CaptureSpec struct {
	// Roots are category or page titles to start from.
	Roots []string
	// Depth bounds the membership BFS from each root.
	Depth int
	// Links also captures outbound links of every captured page.
	Links bool
}

// Capture walks the source provider from the spec's roots and writes
// everything it finds into the snapshot in one transaction. Attribute
// data is copied when the source supplies it and skipped quietly when it
// does not.
func (s *Store) Capture(ctx context.Context, src provider.Provider, spec CaptureSpec) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin capture: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op if committed

	ids := make(map[string]int64) // page ref → snapshot row id
	attrsSupported := true

	ensure := func(pg provider.Page) (int64, error) {
		if id, ok := ids[pg.ID]; ok {
			return id, nil
		}
		var attrs *provider.Attributes
		if attrsSupported {
			a, err := src.Attributes(ctx, pg)
			switch {
			case errors.Is(err, provider.ErrAttrsUnsupported):
				attrsSupported = false
			case err != nil:
				return 0, err
			default:
				attrs = a
			}
		}
		id, err := s.insertPage(ctx, tx, pg, attrs)
		if err != nil {
			return 0, err
		}
		ids[pg.ID] = id
		return id, nil
	}

	var captured []provider.Page

	for _, root := range spec.Roots {
		rootPg, err := src.Resolve(ctx, root)
		if err != nil {
			return fmt.Errorf("resolve root %q: %w", root, err)
		}
		if _, err := ensure(rootPg); err != nil {
			return err
		}
		captured = append(captured, rootPg)

		frontier := []provider.Page{rootPg}
		seen := map[string]bool{rootPg.ID: true}
		for depth := 1; depth <= spec.Depth && len(frontier) > 0; depth++ {
			var next []provider.Page
			for _, pg := range frontier {
				members, err := allMembers(ctx, src, pg.Title, provider.Sub)
				if err != nil {
					return err
				}
				srcID := ids[pg.ID]
				for _, mp := range members {
					dstID, err := ensure(mp)
					if err != nil {
						return err
					}
					if err := s.insertEdge(ctx, tx, srcID, dstID, edgeMember); err != nil {
						return err
					}
					if seen[mp.ID] {
						continue
					}
					seen[mp.ID] = true
					captured = append(captured, mp)
					if mp.Namespace == namespaceCategory {
						next = append(next, mp)
					}
				}
			}
			frontier = next
		}
	}

	if spec.Links {
		for _, pg := range captured {
			if pg.Namespace == namespaceCategory {
				continue
			}
			links, err := allMembers(ctx, src, pg.Title, provider.LinksOut)
			if err != nil {
				// Red links and vanished pages are not worth failing a
				// whole capture over.
				if errors.Is(err, provider.ErrNotFound) {
					continue
				}
				return err
			}
			srcID := ids[pg.ID]
			for _, target := range links {
				dstID, err := ensure(target)
				if err != nil {
					return err
				}
				if err := s.insertEdge(ctx, tx, srcID, dstID, edgeLink); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

// allMembers drains the source's pagination for one page and direction.
func allMembers(ctx context.Context, src provider.Provider, title string, dir provider.Direction) ([]provider.Page, error) {
	var out []provider.Page
	cont := ""
	for {
		batch, next, err := src.Members(ctx, title, dir, cont)
		if err != nil {
			return nil, fmt.Errorf("members of %q: %w", title, err)
		}
		out = append(out, batch...)
		if next == "" {
			return out, nil
		}
		cont = next
	}
}
