package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedIsDeterministic(t *testing.T) {
	e := New(0)
	assert.Equal(t, 384, e.Dimensions(), "default dimensionality")

	a, err := e.Embed(context.Background(), "same text")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "same text")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := e.Embed(context.Background(), "different text")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestEmbedReturnsUnitVector(t *testing.T) {
	e := New(64)

	vec, err := e.Embed(context.Background(), "normalize me")
	require.NoError(t, err)
	require.Len(t, vec, 64)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}
