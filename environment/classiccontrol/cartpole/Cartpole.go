// Package cartpole implements the Cartpole classic control environment
package cartpole

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
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnitude of force applied to the cart
	Dt             float64 = 0.02 // Seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 4.8
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2

	// ObservationDims is the number of state observation features
	ObservationDims int = 4
)

// Cartpole implements the classic control environment Cartpole. In
// this environment, a pole is attached to a cart, which can move
// horizontally. The state features are continuous and consist of the
// cart's x position and speed, as well as the pole's angle from the
// positive y-axis and the pole's angular velocity. An angle of 0 means
// the pole points straight up.
//
// Actions are discrete and consist of the force applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
//
// The reward scheme and episode boundaries are determined by the Task
// the environment is created with.
type Cartpole struct {
	env.Task
	lastStep              ts.TimeStep
	discount              float64
	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval
}

// New constructs a new Cartpole environment with the argument task
func New(t env.Task, discount float64) (*Cartpole, ts.TimeStep) {
	positionBounds := r1.Interval{Min: -PositionBounds, Max: PositionBounds}
	speedBounds := r1.Interval{Min: -SpeedBounds, Max: SpeedBounds}
	angleBounds := r1.Interval{Min: -AngleBounds, Max: AngleBounds}
	angularVelocityBounds := r1.Interval{Min: -AngularVelocityBounds,
		Max: AngularVelocityBounds}

	state := t.Start()
	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	cartpole := Cartpole{t, firstStep, discount, positionBounds, speedBounds,
		angleBounds, angularVelocityBounds}

	return &cartpole, firstStep
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() ts.TimeStep {
	state := c.Start()
	startStep := ts.New(ts.First, 0, c.discount, state, 0)
	c.lastStep = startStep

	return startStep
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound, env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	lower := []float64{c.positionBounds.Min, c.speedBounds.Min,
		c.angleBounds.Min, c.angularVelocityBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, lower)

	upper := []float64{c.positionBounds.Max, c.speedBounds.Max,
		c.angleBounds.Max, c.angularVelocityBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (c *Cartpole) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{c.discount})
	upperBound := mat.NewVecDense(1, []float64{c.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep and a bool indicating whether or
// not the episode has ended
func (c *Cartpole) Step(a mat.Vector) (ts.TimeStep, bool) {
	// Discrete action in {0, 1, 2}
	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		panic(fmt.Sprintf("step: illegal action %v ∉ {0, 1, 2}", action))
	}

	// Get state variables
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	// Magnify the action force in the appropriate direction
	var force float64
	switch action {
	case 0:
		force = -ForceMag
	case 2:
		force = ForceMag
	default:
		force = 0.0
	}

	// Calculate physical variables to determine next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := PoleMass + CartMass
	poleMassOverLength := PoleMass / HalfPoleLength

	temp := (force + poleMassOverLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassOverLength*thAcc*cosTheta/totalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	x = floatutils.Clip(x, c.positionBounds.Min, c.positionBounds.Max)

	xDot += Dt * xAcc

	th += Dt * thDot
	th = normalizeAngle(th, c.angleBounds)

	thDot += Dt * thAcc

	// Create the new timestep
	newState := mat.NewVecDense(ObservationDims, []float64{x, xDot, th, thDot})
	reward := c.GetReward(c.lastStep.Observation, a, newState)
	nextStep := ts.New(ts.Mid, reward, c.discount, newState,
		c.lastStep.Number+1)

	// Check if the step ends the episode
	c.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last()
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  |  Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

// normalizeAngle normalizes the pole angle to within the angle bounds,
// which must be centered around 0
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	}
	return th
}
