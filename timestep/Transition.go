package timestep

import (
	"gonum.org/v1/gonum/mat"
)

// Transition packages together a single transition of the
// agent-environment interaction: the state the agent was in, the action
// it took there, and the reward, discount, and next state that the
// environment responded with. Transitions are immutable once recorded.
//
// The Discount field is the discount to apply to action values of
// NextState when bootstrapping. It is 0 if NextState ended the episode,
// so that learning targets never bootstrap across episode boundaries.
type Transition struct {
	State    mat.Vector
	Action   mat.Vector
	Reward   float64
	Discount float64

	NextState  mat.Vector
	NextAction mat.Vector
}

// NewTransition packages an environment step and the action selected
// at that step into a Transition. The step parameter is the timestep
// at which action was taken, and nextStep is the timestep that the
// environment transitioned to.
func NewTransition(step TimeStep, action mat.Vector, nextStep TimeStep,
	nextAction mat.Vector) Transition {
	discount := nextStep.Discount
	if nextStep.Last() {
		discount = 0.0
	}

	return Transition{
		State:      step.Observation,
		Action:     action,
		Reward:     nextStep.Reward,
		Discount:   discount,
		NextState:  nextStep.Observation,
		NextAction: nextAction,
	}
}
