package dqn

import (
	"fmt"

	"github.com/deeprl/deeprl/expreplay"
	"github.com/deeprl/deeprl/initwfn"
	"github.com/deeprl/deeprl/network"
	"github.com/deeprl/deeprl/params"
	"github.com/deeprl/deeprl/solver"
)

// Config describes a configuration of the DQN agent
type Config struct {
	// PolicyLayers, Biases, and Activations describe the hidden layers
	// of the action value network. A final linear layer with one
	// output per action is always added.
	PolicyLayers []int
	Biases       []bool
	Activations  []*network.Activation `json:"-"`

	// InitWFn initializes the hidden layer weights. OutputInitWFn
	// initializes the final linear layer and defaults to InitWFn if
	// unset.
	InitWFn       *initwfn.InitWFn
	OutputInitWFn *initwfn.InitWFn

	Solver *solver.Solver

	// Epsilon is the exploration schedule followed in training mode
	// and EvalEpsilon the exploration rate used in evaluation mode
	Epsilon     params.Parameter `json:"-"`
	EvalEpsilon params.Parameter `json:"-"`

	ReplayBuffer expreplay.Config

	// Tau is the Polyak averaging constant used when updating the
	// target network. A Tau of 1.0 copies the learned weights into
	// the target network outright.
	Tau float64

	// TargetUpdateInterval is the number of gradient steps between
	// target network updates
	TargetUpdateInterval int

	BatchSize int
}

// Validate returns an error describing why the configuration cannot
// be used, or nil if it can
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("config: must have one bias flag per hidden "+
			"layer \n\twant(%d) \n\thave(%d)", len(c.PolicyLayers),
			len(c.Biases))
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("config: must have one activation per hidden "+
			"layer \n\twant(%d) \n\thave(%d)", len(c.PolicyLayers),
			len(c.Activations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("config: no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("config: no solver given")
	}
	if c.Epsilon == nil || c.EvalEpsilon == nil {
		return fmt.Errorf("config: no exploration schedule given")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch size must be at least 1")
	}
	if c.ReplayBuffer.SampleSize != c.BatchSize {
		return fmt.Errorf("config: replay buffer sample size(%d) must "+
			"equal batch size(%d)", c.ReplayBuffer.SampleSize, c.BatchSize)
	}
	if c.ReplayBuffer.MinReplayCapacity < c.BatchSize {
		return fmt.Errorf("config: cannot have batch size(%d) > minimum "+
			"replay capacity(%d)", c.BatchSize,
			c.ReplayBuffer.MinReplayCapacity)
	}
	if c.ReplayBuffer.MaxReplayCapacity < c.ReplayBuffer.MinReplayCapacity {
		return fmt.Errorf("config: cannot have minimum replay "+
			"capacity(%d) > maximum replay capacity(%d)",
			c.ReplayBuffer.MinReplayCapacity,
			c.ReplayBuffer.MaxReplayCapacity)
	}

	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("config: target update interval must be at "+
			"least 1 \n\thave(%d)", c.TargetUpdateInterval)
	}
	if c.Tau <= 0.0 || c.Tau > 1.0 {
		return fmt.Errorf("config: tau must be in (0, 1] \n\thave(%v)",
			c.Tau)
	}

	return nil
}

// outputInitWFn returns the initializer for the final linear layer
func (c Config) outputInitWFn() *initwfn.InitWFn {
	if c.OutputInitWFn != nil {
		return c.OutputInitWFn
	}
	return c.InitWFn
}
