package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/deeprl/deeprl/environment"
	ts "github.com/deeprl/deeprl/timestep"
)

const (
	// FailAngle is the angle at which the pole is considered to have
	// fallen in the Balance task
	FailAngle float64 = 12 * 2 * math.Pi / 360
)

// Balance implements the classic control Cartpole Balance task. In
// this Task, the goal of the agent is to keep the pole in an upright
// position for as long as possible.
//
// The rewards are +1 for every timestep on which the pole is above the
// fail angle and -1 when the pole has fallen below the fail angle.
//
// Episodes end at a step limit or once the pole has fallen below the
// fail angle.
type Balance struct {
	env.Starter
	stepLimiter  env.StepLimit
	angleLimiter *env.IntervalLimit
	failAngle    float64
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int, failAngle float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	legalAngles := []r1.Interval{{Min: -failAngle, Max: failAngle}}
	angleFeatureIndex := []int{2}
	angleLimiter := env.NewIntervalLimit(legalAngles, angleFeatureIndex)

	return &Balance{s, stepLimiter, angleLimiter, failAngle}
}

// End checks if a TimeStep is the last in an episode. If so, it
// adjusts the TimeStep's StepType to timestep.Last and returns true.
// Otherwise, the function does not adjust the TimeStep and returns
// false.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.angleLimiter.End(t); end {
		return true
	}
	return b.stepLimiter.End(t)
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to nextState
func (b *Balance) GetReward(_ mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	angle := math.Abs(nextState.AtVec(2))

	// Angle of 0 is pointing straight up, so the pole is balanced
	// while the angle stays below the fail angle
	if angle < b.failAngle {
		return 1.0
	}
	return -1.0
}

// AtGoal returns whether or not the goal position has been reached
func (b *Balance) AtGoal(state mat.Matrix) bool {
	return math.Abs(state.At(0, 2)) < b.failAngle
}

// Min returns the minimum possible reward
func (b *Balance) Min() float64 { return -1.0 }

// Max returns the maximum possible reward
func (b *Balance) Max() float64 { return 1.0 }

// RewardSpec returns the reward specification for the task
func (b *Balance) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{b.Min()})
	upperBound := mat.NewVecDense(1, []float64{b.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}

// SwingUp implements the Cartpole SwingUp task. The pole starts near
// the downward position, and the agent must swing it up and keep it
// upright.
//
// SwingUp is a cost-to-go task: the reward is -1 on every timestep.
// Episodes never end early; they run until the step horizon, so an
// episode with horizon H always accumulates a return of -H under no
// discounting.
type SwingUp struct {
	env.Starter
	stepLimiter  env.StepLimit
	balanceAngle float64
}

// NewSwingUp creates and returns a new SwingUp task. The balanceAngle
// argument determines the angle below which the pole is considered
// balanced by AtGoal.
func NewSwingUp(s env.Starter, episodeSteps int, balanceAngle float64) *SwingUp {
	return &SwingUp{s, env.NewStepLimit(episodeSteps), balanceAngle}
}

// End checks if a TimeStep is the last in an episode. Episodes in the
// SwingUp task end only at the step horizon.
func (s *SwingUp) End(t *ts.TimeStep) bool {
	return s.stepLimiter.End(t)
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to nextState. The reward is -1 on every
// step.
func (s *SwingUp) GetReward(_ mat.Vector, _ mat.Vector,
	_ mat.Vector) float64 {
	return -1.0
}

// AtGoal returns whether or not the pole is balanced upright
func (s *SwingUp) AtGoal(state mat.Matrix) bool {
	return math.Abs(state.At(0, 2)) < s.balanceAngle
}

// Min returns the minimum possible reward
func (s *SwingUp) Min() float64 { return -1.0 }

// Max returns the maximum possible reward
func (s *SwingUp) Max() float64 { return -1.0 }

// RewardSpec returns the reward specification for the task
func (s *SwingUp) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
