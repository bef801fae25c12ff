package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/agentic-research/catsieve/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *provider.Memory {
	m := provider.NewMemory()
	m.AddPage("Category:Fruits", 14)
	m.AddPage("Category:Citrus", 14)
	m.AddPage("Apple", 0)
	m.AddPage("Orange", 0)
	m.AddPage("Lemon", 0)
	m.AddMember("Category:Fruits", "Apple")
	m.AddMember("Category:Fruits", "Orange")
	m.AddMember("Category:Fruits", "Category:Citrus")
	m.AddMember("Category:Citrus", "Lemon")
	m.AddLink("Apple", "Orange")
	m.SetAttributes("Lemon", provider.Attributes{Namespace: 0, Redirect: true, RedirectTarget: "Citron", Quality: 3, HasQuality: true})
	return m
}

func capturedStore(t *testing.T, links bool) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wiki.db")
	st, err := Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	err = st.Capture(context.Background(), fixture(), CaptureSpec{
		Roots: []string{"Category:Fruits"},
		Depth: 3,
		Links: links,
	})
	require.NoError(t, err)
	return st
}

func titles(pages []provider.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Title
	}
	return out
}

func TestCaptureAndResolve(t *testing.T) {
	st := capturedStore(t, false)

	pg, err := st.Resolve(context.Background(), "Apple")
	require.NoError(t, err)
	assert.Equal(t, "Apple", pg.Title)
	assert.Equal(t, 0, pg.Namespace)

	_, err = st.Resolve(context.Background(), "Banana")
	assert.True(t, errors.Is(err, provider.ErrNotFound))
	assert.False(t, provider.IsTransient(err))
}

func TestMembers_MatchesCaptureSource(t *testing.T) {
	st := capturedStore(t, false)
	ctx := context.Background()

	got, cont, err := st.Members(ctx, "Category:Fruits", provider.Sub, "")
	require.NoError(t, err)
	assert.Empty(t, cont)
	assert.ElementsMatch(t, []string{"Apple", "Orange", "Category:Citrus"}, titles(got))

	got, _, err = st.Members(ctx, "Category:Citrus", provider.Sub, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lemon"}, titles(got))

	// Reverse direction comes from the same edge rows.
	got, _, err = st.Members(ctx, "Lemon", provider.Super, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Category:Citrus"}, titles(got))
}

func TestMembers_Pagination(t *testing.T) {
	st := capturedStore(t, false)
	st.SetBatchSize(2)
	ctx := context.Background()

	var all []string
	cont := ""
	rounds := 0
	for {
		batch, next, err := st.Members(ctx, "Category:Fruits", provider.Sub, cont)
		require.NoError(t, err)
		all = append(all, titles(batch)...)
		rounds++
		if next == "" {
			break
		}
		cont = next
	}
	assert.Equal(t, 2, rounds)
	assert.ElementsMatch(t, []string{"Apple", "Orange", "Category:Citrus"}, all)
}

func TestMembers_Links(t *testing.T) {
	st := capturedStore(t, true)
	ctx := context.Background()

	out, _, err := st.Members(ctx, "Apple", provider.LinksOut, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Orange"}, titles(out))

	in, _, err := st.Members(ctx, "Orange", provider.LinksIn, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple"}, titles(in))
}

func TestAttributes_CopiedFromSource(t *testing.T) {
	st := capturedStore(t, false)
	ctx := context.Background()

	lemon, err := st.Resolve(ctx, "Lemon")
	require.NoError(t, err)
	attrs, err := st.Attributes(ctx, lemon)
	require.NoError(t, err)
	assert.True(t, attrs.Redirect)
	assert.Equal(t, "Citron", attrs.RedirectTarget)
	assert.True(t, attrs.HasQuality)
	assert.Equal(t, 3, attrs.Quality)

	apple, err := st.Resolve(ctx, "Apple")
	require.NoError(t, err)
	attrs, err = st.Attributes(ctx, apple)
	require.NoError(t, err)
	assert.False(t, attrs.Redirect)
	assert.False(t, attrs.HasQuality, "no quality data in the source")
}

func TestCapture_SourceWithoutAttributes(t *testing.T) {
	src := fixture()
	src.DisableAttributes()

	path := filepath.Join(t.TempDir(), "wiki.db")
	st, err := Create(path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	err = st.Capture(context.Background(), src, CaptureSpec{Roots: []string{"Category:Fruits"}, Depth: 2})
	require.NoError(t, err)

	pg, err := st.Resolve(context.Background(), "Lemon")
	require.NoError(t, err)
	attrs, err := st.Attributes(context.Background(), pg)
	require.NoError(t, err)
	assert.False(t, attrs.HasQuality)
}
