package timestep

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStepTypePredicates(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.0, 0.0})

	first := New(First, 0.0, 1.0, obs, 0)
	require.True(t, first.First())
	require.False(t, first.Mid())
	require.False(t, first.Last())

	mid := New(Mid, -1.0, 1.0, obs, 1)
	require.False(t, mid.First())
	require.True(t, mid.Mid())
	require.False(t, mid.Last())

	last := New(Last, -1.0, 1.0, obs, 2)
	require.False(t, last.First())
	require.False(t, last.Mid())
	require.True(t, last.Last())
}

func TestTransitionKeepsDiscountOnMidStep(t *testing.T) {
	state := mat.NewVecDense(2, []float64{1.0, 2.0})
	nextState := mat.NewVecDense(2, []float64{3.0, 4.0})
	action := mat.NewVecDense(1, []float64{1.0})

	step := New(First, 0.0, 0.99, state, 0)
	nextStep := New(Mid, -1.0, 0.99, nextState, 1)

	transition := NewTransition(step, action, nextStep, nil)
	require.Equal(t, 0.99, transition.Discount)
	require.Equal(t, -1.0, transition.Reward)
}

func TestTransitionZeroDiscountOnLastStep(t *testing.T) {
	state := mat.NewVecDense(2, []float64{1.0, 2.0})
	nextState := mat.NewVecDense(2, []float64{3.0, 4.0})
	action := mat.NewVecDense(1, []float64{0.0})

	step := New(Mid, -1.0, 0.99, state, 5)

	// Episode end by any means, terminal state or step horizon, must
	// stop bootstrapping
	nextStep := New(Last, -1.0, 0.99, nextState, 6)

	transition := NewTransition(step, action, nextStep, nil)
	require.Equal(t, 0.0, transition.Discount)
}
