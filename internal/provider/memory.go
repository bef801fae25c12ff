package provider

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Memory is an in-memory Provider. It backs tests and fixture graphs and
// is the capture source for SQLite snapshots. Edges are stored forward
// and reverse so every direction is O(degree).
//
// Pages spring into existence via AddPage; edges may only reference
// registered titles, so a missing title is a real ErrNotFound rather than
// a silently empty neighborhood.
type Memory struct {
	mu       sync.RWMutex
	pages    map[string]Page // title → page
	attrs    map[string]Attributes
	members  map[string][]string // category title → member titles
	memberOf map[string][]string // reverse of members
	linksOut map[string][]string
	linksIn  map[string][]string
	nextID   int
	pageSize int  // Members batch size; 0 means everything in one batch
	noAttrs  bool // simulate a provider without attribute support

	// failures injected by tests: op+title → error
	failures map[string]error
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		pages:    make(map[string]Page),
		attrs:    make(map[string]Attributes),
		members:  make(map[string][]string),
		memberOf: make(map[string][]string),
		linksOut: make(map[string][]string),
		linksIn:  make(map[string][]string),
		failures: make(map[string]error),
	}
}

// AddPage registers a page under its title and returns it. Adding the same
// title twice returns the existing page.
func (m *Memory) AddPage(title string, ns int) Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pages[title]; ok {
		return p
	}
	m.nextID++
	p := Page{ID: strconv.Itoa(m.nextID), Title: title, Namespace: ns}
	m.pages[title] = p
	return p
}

// AddMember records that category parent contains child. Both titles must
// already be registered.
func (m *Memory) AddMember(parent, child string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustHave(parent)
	m.mustHave(child)
	m.members[parent] = append(m.members[parent], child)
	m.memberOf[child] = append(m.memberOf[child], parent)
}

// AddLink records a wiki link from one page to another.
func (m *Memory) AddLink(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustHave(from)
	m.mustHave(to)
	m.linksOut[from] = append(m.linksOut[from], to)
	m.linksIn[to] = append(m.linksIn[to], from)
}

// SetAttributes overrides the attributes reported for a title. Without an
// override, Attributes derives namespace from the page and reports no
// redirect and no quality score.
func (m *Memory) SetAttributes(title string, a Attributes) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[title] = a
}

// SetPageSize forces Members to paginate in batches of n, for exercising
// continuation-token handling.
func (m *Memory) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// DisableAttributes makes Attributes return ErrAttrsUnsupported, modeling
// a provider with no attribute capability.
func (m *Memory) DisableAttributes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noAttrs = true
}

// FailWith injects an error for a specific op ("resolve", "members",
// "attributes") and title.
func (m *Memory) FailWith(op, title string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op+"\x00"+title] = err
}

func (m *Memory) mustHave(title string) {
	if _, ok := m.pages[title]; !ok {
		panic(fmt.Sprintf("memory provider: edge references unregistered title %q", title))
	}
}

func (m *Memory) injected(op, title string) error {
	return m.failures[op+"\x00"+title]
}

// Resolve implements Provider.
func (m *Memory) Resolve(ctx context.Context, title string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("resolve", title); err != nil {
		return Page{}, err
	}
	p, ok := m.pages[title]
	if !ok {
		return Page{}, NewPermanent("resolve", title, ErrNotFound)
	}
	return p, nil
}

// Members implements Provider.
func (m *Memory) Members(ctx context.Context, title string, dir Direction, cont string) ([]Page, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("members", title); err != nil {
		return nil, "", err
	}
	if _, ok := m.pages[title]; !ok {
		return nil, "", NewPermanent("members", title, ErrNotFound)
	}

	var titles []string
	switch dir {
	case Sub:
		titles = m.members[title]
	case Super:
		titles = m.memberOf[title]
	case LinksIn:
		titles = m.linksIn[title]
	case LinksOut:
		titles = m.linksOut[title]
	}

	offset := 0
	if cont != "" {
		n, err := strconv.Atoi(cont)
		if err != nil {
			return nil, "", NewPermanent("members", title, fmt.Errorf("bad continuation token %q", cont))
		}
		offset = n
	}
	if offset >= len(titles) {
		return nil, "", nil
	}

	end := len(titles)
	next := ""
	if m.pageSize > 0 && offset+m.pageSize < end {
		end = offset + m.pageSize
		next = strconv.Itoa(end)
	}

	out := make([]Page, 0, end-offset)
	for _, t := range titles[offset:end] {
		out = append(out, m.pages[t])
	}
	return out, next, nil
}

// Attributes implements Provider.
func (m *Memory) Attributes(ctx context.Context, page Page) (*Attributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.noAttrs {
		return nil, ErrAttrsUnsupported
	}
	if err := m.injected("attributes", page.Title); err != nil {
		return nil, err
	}
	if a, ok := m.attrs[page.Title]; ok {
		return &a, nil
	}
	if p, ok := m.pages[page.Title]; ok {
		return &Attributes{Namespace: p.Namespace}, nil
	}
	return nil, NewPermanent("attributes", page.Title, ErrNotFound)
}

// Pages returns all registered pages, for snapshot capture.
func (m *Memory) Pages() []Page {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Page, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, p)
	}
	return out
}
