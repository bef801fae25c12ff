package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/catsieve/internal/provider"
	"github.com/agentic-research/catsieve/internal/solve"
)

type fakePublisher struct {
	mu        sync.Mutex
	previous  map[string][]string
	published map[string][]string
	targets   map[string]string
	warned    map[string][]solve.Warning
	prevErr   error
	pubErr    error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		previous:  make(map[string][]string),
		published: make(map[string][]string),
		targets:   make(map[string]string),
		warned:    make(map[string][]solve.Warning),
	}
}

func (f *fakePublisher) Previous(_ context.Context, list string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prevErr != nil {
		return nil, f.prevErr
	}
	return f.previous[list], nil
}

func (f *fakePublisher) Publish(_ context.Context, list, target string, titles []string, warnings []solve.Warning) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published[list] = titles
	f.targets[list] = target
	f.warned[list] = warnings
	return nil
}

func fruitProvider() *provider.Memory {
	m := provider.NewMemory()
	m.AddPage("Category:Fruits", 14)
	m.AddPage("Category:Citrus", 14)
	m.AddPage("Apple", 0)
	m.AddPage("Orange", 0)
	m.AddPage("Lemon", 0)
	m.AddMember("Category:Fruits", "Apple")
	m.AddMember("Category:Fruits", "Orange")
	m.AddMember("Category:Fruits", "Lemon")
	m.AddMember("Category:Citrus", "Orange")
	m.AddMember("Category:Citrus", "Lemon")
	return m
}

func TestRun_PublishesNewList(t *testing.T) {
	pub := newFakePublisher()
	r := New(fruitProvider(), pub)

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "citrus", Query: "Category:Fruits & Category:Citrus", Target: "User:Bot/Citrus"},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	out := outcomes[0]
	assert.Equal(t, solve.StatusOK, out.Status)
	assert.True(t, out.Published)
	assert.NoError(t, out.Err)
	assert.Equal(t, []string{"Lemon", "Orange"}, out.Added)
	assert.Empty(t, out.Removed)
	assert.Equal(t, []string{"Lemon", "Orange"}, pub.published["citrus"])
	assert.Equal(t, "User:Bot/Citrus", pub.targets["citrus"], "the configured target reaches the publisher")
}

func TestRun_DiffsAgainstPrevious(t *testing.T) {
	pub := newFakePublisher()
	pub.previous["citrus"] = []string{"Lemon", "Lime"}
	r := New(fruitProvider(), pub)

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "citrus", Query: "Category:Citrus"},
	})
	require.NoError(t, err)

	out := outcomes[0]
	assert.True(t, out.Published)
	assert.Equal(t, []string{"Orange"}, out.Added)
	assert.Equal(t, []string{"Lime"}, out.Removed)
}

func TestRun_UnchangedListNotRepublished(t *testing.T) {
	pub := newFakePublisher()
	pub.previous["citrus"] = []string{"Lemon", "Orange"}
	r := New(fruitProvider(), pub)

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "citrus", Query: "Category:Citrus"},
	})
	require.NoError(t, err)

	out := outcomes[0]
	assert.Equal(t, solve.StatusOK, out.Status)
	assert.False(t, out.Published)
	assert.Empty(t, out.Added)
	assert.Empty(t, out.Removed)
	_, republished := pub.published["citrus"]
	assert.False(t, republished)
}

func TestRun_ErrSkipsPublish(t *testing.T) {
	pub := newFakePublisher()
	pub.previous["broken"] = []string{"Apple"}
	r := New(fruitProvider(), pub)

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "broken", Query: "Category:Missing"},
	})
	require.NoError(t, err)

	out := outcomes[0]
	assert.Equal(t, solve.StatusErr, out.Status)
	assert.False(t, out.Published)
	assert.Error(t, out.Err)
	_, republished := pub.published["broken"]
	assert.False(t, republished, "failed solve must not clobber the published list")
}

func TestRun_ParseFailureIsErrOutcome(t *testing.T) {
	pub := newFakePublisher()
	r := New(fruitProvider(), pub)

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "bad", Query: "Category:Fruits +"},
	})
	require.NoError(t, err)
	assert.Equal(t, solve.StatusErr, outcomes[0].Status)
	assert.Error(t, outcomes[0].Err)
}

func TestRun_WarnStillPublishes(t *testing.T) {
	pub := newFakePublisher()
	r := New(fruitProvider(), pub)

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "capped", Query: "Category:Fruits", Limits: solve.Limits{MaxPages: 2}},
	})
	require.NoError(t, err)

	out := outcomes[0]
	assert.Equal(t, solve.StatusWarn, out.Status)
	assert.True(t, out.Published, "degraded results are still results")
	require.NotEmpty(t, pub.warned["capped"])
	assert.Equal(t, solve.LimitExceeded, pub.warned["capped"][0].Kind)
}

func TestRun_OneFailureDoesNotStopOthers(t *testing.T) {
	pub := newFakePublisher()
	r := New(fruitProvider(), pub, WithConcurrency(1))

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "broken", Query: "Category:Missing"},
		{Name: "fruits", Query: "Category:Fruits"},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, solve.StatusErr, outcomes[0].Status)
	assert.Equal(t, solve.StatusOK, outcomes[1].Status)
	assert.True(t, outcomes[1].Published)
}

func TestRun_PublishFailureRecorded(t *testing.T) {
	pub := newFakePublisher()
	pub.pubErr = errors.New("edit conflict")
	r := New(fruitProvider(), pub)

	outcomes, err := r.Run(context.Background(), []List{
		{Name: "fruits", Query: "Category:Fruits"},
	})
	require.NoError(t, err)
	assert.False(t, outcomes[0].Published)
	assert.ErrorContains(t, outcomes[0].Err, "edit conflict")
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(fruitProvider(), newFakePublisher())
	_, err := r.Run(ctx, []List{{Name: "fruits", Query: "Category:Fruits"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiff(t *testing.T) {
	added, removed := diff([]string{"A", "B", "C"}, []string{"B", "C", "D"})
	assert.Equal(t, []string{"D"}, added)
	assert.Equal(t, []string{"A"}, removed)
}
