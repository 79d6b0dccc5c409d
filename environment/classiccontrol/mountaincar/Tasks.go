package mountaincar

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/deeprl/deeprl/environment"
	ts "github.com/deeprl/deeprl/timestep"
)

const (
	// GoalPosition is the commonly used goal x position
	GoalPosition float64 = 0.45
)

// Goal implements the classic control task of reaching a goal position
// on Mountain Car.
//
// Rewards are -1 on each timestep and 0 for the action which
// transitions the car to the goal.
//
// Episodes end at a step limit or when the car reaches the goal state.
type Goal struct {
	env.Starter
	goalEnder *env.IntervalLimit
	stepEnder env.StepLimit
	goalX     float64
}

// NewGoal creates and returns a new Goal task given a Starter, which
// determines the starting states; the maximum number of episode steps;
// and the goal x position.
func NewGoal(s env.Starter, episodeSteps int, goalX float64) *Goal {
	stepEnder := env.NewStepLimit(episodeSteps)

	interval := []r1.Interval{{Min: math.Inf(-1), Max: goalX}}
	positionIndex := []int{0}
	goalEnder := env.NewIntervalLimit(interval, positionIndex)

	return &Goal{s, goalEnder, stepEnder, goalX}
}

// AtGoal returns a boolean indicating whether or not the argument
// state is the goal state
func (g *Goal) AtGoal(state mat.Matrix) bool {
	return state.At(0, 0) >= g.goalX
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state. Since this is a cost-to-goal task, rewards
// are -1.0 for all actions, except for an action which leads to the
// goal state, which results in a reward of 0.0
func (g *Goal) GetReward(_ mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	if nextState.AtVec(0) >= g.goalX {
		return 0.0
	}
	return -1.0
}

// Min returns the minimum attainable reward over all timesteps
func (g *Goal) Min() float64 { return -1.0 }

// Max returns the maximum attainable reward over all timesteps
func (g *Goal) Max() float64 { return 0.0 }

// RewardSpec returns the reward specification of the task
func (g *Goal) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}

// End determines if a timestep is the last timestep in the episode,
// either because the goal was reached or because the step limit was
// hit. If so, it changes the TimeStep's StepType to timestep.Last.
func (g *Goal) End(t *ts.TimeStep) bool {
	if end := g.goalEnder.End(t); end {
		return true
	}
	return g.stepEnder.End(t)
}
