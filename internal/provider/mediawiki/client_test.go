package mediawiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentic-research/catsieve/internal/provider"
	"github.com/agentic-research/catsieve/internal/query"
	"github.com/agentic-research/catsieve/internal/solve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithRateLimit(1000), WithBatchSize(2))
}

func TestResolve(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "Apple", r.URL.Query().Get("titles"))
		_, _ = w.Write([]byte(`{"query":{"pages":[{"pageid":42,"ns":0,"title":"Apple"}]}}`))
	})

	pg, err := c.Resolve(context.Background(), "Apple")
	require.NoError(t, err)
	assert.Equal(t, provider.Page{ID: "Apple", Title: "Apple", Namespace: 0}, pg)
}

func TestResolve_Missing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"pages":[{"ns":0,"title":"Nope","missing":true}]}}`))
	})

	_, err := c.Resolve(context.Background(), "Nope")
	assert.True(t, errors.Is(err, provider.ErrNotFound))
	assert.False(t, provider.IsTransient(err))
}

func TestMembers_CategoryPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "categorymembers", q.Get("list"))
		assert.Equal(t, "Category:Fruits", q.Get("cmtitle"))
		if q.Get("cmcontinue") == "" {
			_, _ = w.Write([]byte(`{
				"query":{"categorymembers":[
					{"pageid":1,"ns":0,"title":"Apple"},
					{"pageid":2,"ns":0,"title":"Orange"}]},
				"continue":{"cmcontinue":"page|4f|2"}}`))
			return
		}
		assert.Equal(t, "page|4f|2", q.Get("cmcontinue"))
		_, _ = w.Write([]byte(`{"query":{"categorymembers":[{"pageid":3,"ns":14,"title":"Category:Citrus"}]}}`))
	})

	ctx := context.Background()
	first, cont, err := c.Members(ctx, "Category:Fruits", provider.Sub, "")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "page|4f|2", cont)

	second, cont, err := c.Members(ctx, "Category:Fruits", provider.Sub, cont)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Category:Citrus", second[0].Title)
	assert.Equal(t, 14, second[0].Namespace)
	assert.Empty(t, cont)
}

func TestMembers_LinksKeyedByTitle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "links", r.URL.Query().Get("prop"))
		_, _ = w.Write([]byte(`{"query":{"pages":[{"title":"Apple","links":[{"ns":0,"title":"Orange"}]}]}}`))
	})

	pages, cont, err := c.Members(context.Background(), "Apple", provider.LinksOut, "")
	require.NoError(t, err)
	assert.Empty(t, cont)
	require.Len(t, pages, 1)
	assert.Equal(t, provider.Page{ID: "Orange", Title: "Orange", Namespace: 0}, pages[0])
}

// A page reached as a category member and again as a link target must
// carry one identity, or set algebra mixing directions falls apart.
func TestMembers_SameIdentityAcrossDirections(t *testing.T) {
	c := newTestClient(t, fruitWikiHandler(t))
	ctx := context.Background()

	members, _, err := c.Members(ctx, "Category:Fruits", provider.Sub, "")
	require.NoError(t, err)
	links, _, err := c.Members(ctx, "Apple", provider.LinksOut, "")
	require.NoError(t, err)

	require.Len(t, members, 1)
	require.Len(t, links, 1)
	assert.Equal(t, members[0].ID, links[0].ID)
}

func TestSolve_IntersectionAcrossDirections(t *testing.T) {
	c := newTestClient(t, fruitWikiHandler(t))

	node, err := query.Parse(`"Category:Fruits" & "Apple"[dir=out]`)
	require.NoError(t, err)

	res := solve.Solve(context.Background(), node, c, solve.Limits{})
	require.Equal(t, solve.StatusOK, res.Status)
	assert.Equal(t, []string{"Orange"}, res.Titles())
}

// fruitWikiHandler serves a wiki where Category:Fruits contains Orange
// (which has a pageid) and Apple links to Orange (no pageid in link
// lists).
func fruitWikiHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("list") == "categorymembers":
			_, _ = w.Write([]byte(`{"query":{"categorymembers":[{"pageid":2,"ns":0,"title":"Orange"}]}}`))
		case q.Get("prop") == "links":
			if q.Get("titles") == "Apple" {
				_, _ = w.Write([]byte(`{"query":{"pages":[{"pageid":1,"title":"Apple","links":[{"ns":0,"title":"Orange"}]}]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"query":{"pages":[{"pageid":2,"title":"` + q.Get("titles") + `"}]}}`))
		default:
			title := q.Get("titles")
			_, _ = w.Write([]byte(`{"query":{"pages":[{"pageid":7,"ns":0,"title":"` + title + `"}]}}`))
		}
	}
}

func TestDo_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, _, err := c.Members(context.Background(), "Category:Fruits", provider.Sub, "")
	assert.True(t, provider.IsTransient(err))
}

func TestDo_APIErrorIsPermanent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"invalidtitle","info":"Bad title"}}`))
	})

	_, _, err := c.Members(context.Background(), "::bad::", provider.Sub, "")
	require.Error(t, err)
	assert.False(t, provider.IsTransient(err))
	assert.Contains(t, err.Error(), "Bad title")
}

func TestAttributes_Redirect(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "info", r.URL.Query().Get("prop"))
		_, _ = w.Write([]byte(`{"query":{"pages":[{"pageid":9,"ns":0,"title":"Lemon","redirect":true}]}}`))
	})

	attrs, err := c.Attributes(context.Background(), provider.Page{ID: "Lemon", Title: "Lemon"})
	require.NoError(t, err)
	assert.True(t, attrs.Redirect)
	assert.False(t, attrs.HasQuality)
}
