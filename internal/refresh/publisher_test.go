package refresh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/catsieve/internal/solve"
)

func TestFileStore_RoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	prev, err := fs.Previous(ctx, "citrus")
	require.NoError(t, err)
	assert.Nil(t, prev, "never-published list reads as nil")

	warnings := []solve.Warning{{Kind: solve.CycleDetected, Node: `"Category:Citrus"`, Message: "branch cut"}}
	require.NoError(t, fs.Publish(ctx, "citrus", "User:Bot/Citrus", []string{"Lemon", "Orange"}, warnings))

	prev, err = fs.Previous(ctx, "citrus")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lemon", "Orange"}, prev)
}

func TestFileStore_EmptyListIsNotNeverPublished(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Publish(ctx, "empty", "", nil, nil))
	prev, err := fs.Previous(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, prev)
	assert.Empty(t, prev)
}

func TestFileStore_NamesAreEscaped(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Publish(ctx, "lists/citrus", "", []string{"Lemon"}, nil))
	prev, err := fs.Previous(ctx, "lists/citrus")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lemon"}, prev)
}

func TestFileStore_DrivesRefresher(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	r := New(fruitProvider(), fs)
	lists := []List{{Name: "citrus", Query: "Category:Citrus"}}

	outcomes, err := r.Run(context.Background(), lists)
	require.NoError(t, err)
	assert.True(t, outcomes[0].Published)

	// Second run sees the published state and has nothing to do.
	outcomes, err = r.Run(context.Background(), lists)
	require.NoError(t, err)
	assert.False(t, outcomes[0].Published)
	assert.Empty(t, outcomes[0].Added)
}
