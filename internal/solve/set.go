package solve

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/catsieve/internal/provider"
)

// interner assigns dense uint32 ids to pages for the duration of one
// solve, so resolved sets can live in roaring bitmaps and set algebra is
// bitmap AND/OR/ANDNOT. Keyed by the page's stable ID — equality of pages
// is by ID only.
//
// The interner is owned by a single solve and discarded with it; ids are
// never reused across solves because provider data may have changed.
type interner struct {
	ids   map[string]uint32
	pages []provider.Page // dense id → page
}

func newInterner() *interner {
	return &interner{ids: make(map[string]uint32)}
}

func (in *interner) intern(p provider.Page) uint32 {
	if id, ok := in.ids[p.ID]; ok {
		return id
	}
	id := uint32(len(in.pages))
	in.ids[p.ID] = id
	in.pages = append(in.pages, p)
	return id
}

func (in *interner) page(id uint32) provider.Page {
	return in.pages[id]
}

// materialize converts a bitmap back into pages, sorted by title then ID
// so results are deterministic regardless of traversal order.
func (in *interner) materialize(set *roaring.Bitmap) []provider.Page {
	out := make([]provider.Page, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		out = append(out, in.pages[it.Next()])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}
