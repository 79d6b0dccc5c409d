package environment

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/deeprl/deeprl/timestep"
)

func TestStepLimitEndsAtHorizon(t *testing.T) {
	ender := NewStepLimit(3)
	obs := mat.NewVecDense(1, []float64{0.0})

	for number := 0; number < 3; number++ {
		step := timestep.New(timestep.Mid, 0.0, 1.0, obs, number)
		require.False(t, ender.End(&step))
		require.False(t, step.Last())
	}

	step := timestep.New(timestep.Mid, 0.0, 1.0, obs, 3)
	require.True(t, ender.End(&step))
	require.True(t, step.Last(), "ender should mark the cutoff step "+
		"as last")
}

func TestIntervalLimitEndsOutsideInterval(t *testing.T) {
	ender := NewIntervalLimit([]r1.Interval{{Min: -1.0, Max: 1.0}}, []int{1})

	inside := timestep.New(timestep.Mid, 0.0, 1.0,
		mat.NewVecDense(2, []float64{5.0, 0.5}), 1)
	require.False(t, ender.End(&inside))

	outside := timestep.New(timestep.Mid, 0.0, 1.0,
		mat.NewVecDense(2, []float64{0.0, 1.5}), 2)
	require.True(t, ender.End(&outside))
	require.True(t, outside.Last())
}

func TestUniformStarterSamplesWithinBounds(t *testing.T) {
	bounds := []r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}
	starter := NewUniformStarter(bounds, 14)

	for i := 0; i < 100; i++ {
		state := starter.Start()
		require.Equal(t, 2, state.Len())
		for j, bound := range bounds {
			require.GreaterOrEqual(t, state.AtVec(j), bound.Min)
			require.LessOrEqual(t, state.AtVec(j), bound.Max)
		}
	}
}
