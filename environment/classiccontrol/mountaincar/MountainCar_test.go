package mountaincar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/deeprl/deeprl/environment"
)

func goalEnv(t *testing.T, cutoff int) *MountainCar {
	t.Helper()

	starter := env.NewUniformStarter([]r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}, 14)
	task := NewGoal(starter, cutoff, GoalPosition)

	m, _ := New(task, 1.0)
	return m
}

func TestStepKeepsStateWithinBounds(t *testing.T) {
	m := goalEnv(t, 10_000)
	m.Reset()

	action := mat.NewVecDense(1, []float64{2.0})
	for i := 0; i < 500; i++ {
		step, last := m.Step(action)
		if last {
			break
		}

		position := step.Observation.AtVec(0)
		velocity := step.Observation.AtVec(1)
		require.GreaterOrEqual(t, position, MinPosition)
		require.LessOrEqual(t, position, MaxPosition)
		require.LessOrEqual(t, math.Abs(velocity), MaxSpeed)
	}
}

func TestEpisodeCutOffAtHorizon(t *testing.T) {
	cutoff := 100
	m := goalEnv(t, cutoff)
	m.Reset()

	// Doing nothing never reaches the goal, so the episode must be cut
	// off at the horizon
	action := mat.NewVecDense(1, []float64{1.0})
	for i := 1; i <= cutoff; i++ {
		step, last := m.Step(action)
		require.Equal(t, last, i == cutoff)
		if i < cutoff {
			require.Equal(t, -1.0, step.Reward)
		}
	}
}

func TestRockingReachesGoal(t *testing.T) {
	m := goalEnv(t, 10_000)
	step := m.Reset()

	// Accelerate in the direction of the current velocity to build
	// momentum
	for i := 0; i < 10_000; i++ {
		action := mat.NewVecDense(1, []float64{2.0})
		if step.Observation.AtVec(1) < 0 {
			action.SetVec(0, 0.0)
		}

		var last bool
		step, last = m.Step(action)
		if last {
			break
		}
	}

	require.True(t, step.Last())
	require.GreaterOrEqual(t, step.Observation.AtVec(0), GoalPosition)
	require.Equal(t, 0.0, step.Reward, "reaching the goal should not "+
		"be penalized")
}
