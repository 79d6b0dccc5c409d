// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/deeprl/deeprl/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines whether a timestep is the last in an episode. If it
// is, End modifies the timestep so that its StepType is timestep.Last
// and returns true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme and episode boundaries for acting
// in some environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking an action in some state,
	// resulting in a transition to nextState
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether the argument state is a goal state
	AtGoal(state mat.Matrix) bool

	// Min and Max return the minimum and maximum attainable rewards
	Min() float64
	Max() float64

	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task

	// Reset resets the environment between episodes and returns the
	// first timestep of the new episode
	Reset() timestep.TimeStep

	// Step takes one environmental step given an action, returning the
	// next timestep and whether that timestep is the last in the
	// episode
	Step(action mat.Vector) (timestep.TimeStep, bool)

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
