package solve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimitsNormalized(t *testing.T) {
	assert.Equal(t, DefaultLimits(), Limits{}.normalized(),
		"every zero field gets its default, including the timeout")

	full := Limits{MaxDepth: 2, MaxPages: 10, Timeout: time.Second}
	assert.Equal(t, full, full.normalized())

	partial := Limits{MaxPages: 10}.normalized()
	assert.Equal(t, DefaultLimits().MaxDepth, partial.MaxDepth)
	assert.Equal(t, 10, partial.MaxPages)
	assert.Equal(t, DefaultLimits().Timeout, partial.Timeout)
}
