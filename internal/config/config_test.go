package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catsieve.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
wiki {
  endpoint   = "https://en.wikipedia.org/w/api.php"
  rate_limit = 5
}

limits {
  max_depth       = 4
  timeout_seconds = 60
}

snapshot {
  path  = "wiki.db"
  roots = ["Category:Fruits"]
  depth = 3
  links = true
}

list "citrus" {
  query     = "Category:Fruits & Category:Citrus"
  max_pages = 500
  target    = "User:Bot/Citrus"
}

list "non_citrus" {
  query = "Category:Fruits - Category:Citrus"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://en.wikipedia.org/w/api.php", cfg.Wiki.Endpoint)
	require.NotNil(t, cfg.Wiki.RateLimit)
	assert.Equal(t, 5.0, *cfg.Wiki.RateLimit)

	limits := cfg.SolveLimits()
	assert.Equal(t, 4, limits.MaxDepth)
	assert.Equal(t, 100000, limits.MaxPages, "unset field keeps the default")
	assert.Equal(t, time.Minute, limits.Timeout)

	require.Len(t, cfg.Lists, 2)
	citrus := cfg.Lists[0]
	assert.Equal(t, "citrus", citrus.Name)
	listLimits := cfg.ListLimits(citrus)
	assert.Equal(t, 500, listLimits.MaxPages, "list override wins")
	assert.Equal(t, 4, listLimits.MaxDepth, "non-overridden field inherited")

	require.NotNil(t, cfg.Snapshot)
	assert.Equal(t, []string{"Category:Fruits"}, cfg.Snapshot.Roots)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing endpoint",
			body: `wiki { endpoint = "" }`,
			want: "endpoint",
		},
		{
			name: "list without query",
			body: `
wiki { endpoint = "https://example.org/w/api.php" }
list "empty" { query = "" }`,
			want: "no query",
		},
		{
			name: "duplicate list",
			body: `
wiki { endpoint = "https://example.org/w/api.php" }
list "a" { query = "X" }
list "a" { query = "Y" }`,
			want: "duplicate list",
		},
		{
			name: "snapshot without roots",
			body: `
wiki { endpoint = "https://example.org/w/api.php" }
snapshot {
  path  = "wiki.db"
  roots = []
  depth = 1
}`,
			want: "root",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
