// Package mountaincar implements the Mountain Car classic control
// environment
package mountaincar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/deeprl/deeprl/environment"
	ts "github.com/deeprl/deeprl/timestep"
	"github.com/deeprl/deeprl/utils/floatutils"
)

const (
	MinPosition float64 = -1.2
	MaxPosition float64 = 0.6
	MaxSpeed    float64 = 0.07
	Power       float64 = 0.0015 // Engine power
	Gravity     float64 = 0.0025

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2

	// ObservationDims is the number of state observation features
	ObservationDims int = 2
)

// MountainCar implements the Mountain Car environment. The state is
// continuous and consists of the car's x position and velocity. The
// car is underpowered and must rock back and forth between the hills
// to gain enough momentum to climb the rightmost hill.
//
// Actions are discrete:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
type MountainCar struct {
	env.Task
	positionBounds r1.Interval
	speedBounds    r1.Interval
	lastStep       ts.TimeStep
	discount       float64
}

// New creates a new MountainCar environment with the argument task
func New(t env.Task, discount float64) (*MountainCar, ts.TimeStep) {
	positionBounds := r1.Interval{Min: MinPosition, Max: MaxPosition}
	speedBounds := r1.Interval{Min: -MaxSpeed, Max: MaxSpeed}

	state := t.Start()
	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	mountainCar := MountainCar{t, positionBounds, speedBounds, firstStep,
		discount}

	return &mountainCar, firstStep
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (m *MountainCar) Reset() ts.TimeStep {
	state := m.Start()
	startStep := ts.New(ts.First, 0, m.discount, state, 0)
	m.lastStep = startStep

	return startStep
}

// ActionSpec returns the action specification of the environment
func (m *MountainCar) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound, env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (m *MountainCar) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{m.positionBounds.Min, m.speedBounds.Min})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{m.positionBounds.Max, m.speedBounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (m *MountainCar) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{m.discount})
	upperBound := mat.NewVecDense(1, []float64{m.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep and a bool indicating whether or
// not the episode has ended
func (m *MountainCar) Step(a mat.Vector) (ts.TimeStep, bool) {
	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		panic(fmt.Sprintf("step: illegal action %v ∉ {0, 1, 2}", action))
	}

	// Convert action (0, 1, 2) to a force direction (-1, 0, 1)
	force := float64(action) - 1.0

	// Get the current state
	state := m.lastStep.Observation
	position, velocity := state.AtVec(0), state.AtVec(1)

	// Update the velocity
	velocity += force*Power - Gravity*math.Cos(3*position)
	velocity = floatutils.Clip(velocity, m.speedBounds.Min, m.speedBounds.Max)

	// Update the position
	position += velocity
	position = floatutils.Clip(position, m.positionBounds.Min,
		m.positionBounds.Max)

	// The car stops dead when it hits the leftmost wall
	if position <= m.positionBounds.Min && velocity < 0 {
		velocity = 0
	}

	// Create the new timestep
	newState := mat.NewVecDense(ObservationDims, []float64{position, velocity})
	reward := m.GetReward(m.lastStep.Observation, a, newState)
	nextStep := ts.New(ts.Mid, reward, m.discount, newState,
		m.lastStep.Number+1)

	// Check if the step ends the episode
	m.End(&nextStep)

	m.lastStep = nextStep
	return nextStep, nextStep.Last()
}

func (m *MountainCar) String() string {
	state := m.lastStep.Observation
	return fmt.Sprintf("MountainCar  |  Position: %v  |  Speed: %v",
		state.AtVec(0), state.AtVec(1))
}
