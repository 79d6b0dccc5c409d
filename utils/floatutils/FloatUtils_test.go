package floatutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClip(t *testing.T) {
	require.Equal(t, 1.0, Clip(3.0, -1.0, 1.0))
	require.Equal(t, -1.0, Clip(-3.0, -1.0, 1.0))
	require.Equal(t, 0.5, Clip(0.5, -1.0, 1.0))
}

func TestMax(t *testing.T) {
	max, indices := Max(1.0, 3.0, 2.0)
	require.Equal(t, 3.0, max)
	require.Equal(t, []int{1}, indices)

	max, indices = Max(2.0, 1.0, 2.0, 2.0)
	require.Equal(t, 2.0, max)
	require.Equal(t, []int{0, 2, 3}, indices)
}

func TestArgMaxBreaksTiesByLowestIndex(t *testing.T) {
	require.Equal(t, 0, ArgMax(0.0, 0.0, 0.0))
	require.Equal(t, 1, ArgMax(1.0, 2.0, 2.0))
	require.Equal(t, 2, ArgMax(-1.0, -2.0, 0.0))
}

func TestEqual(t *testing.T) {
	require.True(t, Equal([]float64{1.0, 2.0}, []float64{1.0, 2.0}))
	require.False(t, Equal([]float64{1.0, 2.0}, []float64{1.0, 3.0}))
	require.False(t, Equal([]float64{1.0}, []float64{1.0, 2.0}))
}
