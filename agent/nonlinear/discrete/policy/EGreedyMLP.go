// Package policy implements policies using neural network function
// approximation with Gorgonia.
package policy

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/deeprl/deeprl/agent"
	env "github.com/deeprl/deeprl/environment"
	"github.com/deeprl/deeprl/network"
	"github.com/deeprl/deeprl/params"
	"github.com/deeprl/deeprl/timestep"
	"github.com/deeprl/deeprl/utils/floatutils"
)

func init() {
	// Policies are saved inside agent checkpoints
	gob.Register(&MultiHeadEGreedyMLP{})
}

// MultiHeadEGreedyMLP implements an epsilon greedy policy using a
// feedforward neural network/MLP. Given an environment with N actions,
// the neural network produces N outputs, each predicting the value of
// a distinct action.
//
// The policy owns a virtual machine on the network's graph. Selecting
// an action runs the forward pass of the network on the timestep's
// observation and then chooses greedily among the predicted action
// values with probability 1 - epsilon, and uniformly randomly among
// all actions otherwise. Greedy ties are broken by the lowest action
// index, so that the greedy choice is deterministic given the network
// weights.
//
// The policy draws its exploration rate from a schedule. In training
// mode each action selection draws (and advances) the training
// schedule; in evaluation mode the evaluation rate is used and no
// schedule is advanced.
type MultiHeadEGreedyMLP struct {
	network.NeuralNet
	vm G.VM

	epsilon     params.Parameter
	evalEpsilon params.Parameter
	eval        bool

	rng  *rand.Rand
	seed int64
}

// NewMultiHeadEGreedyMLP creates and returns a new MultiHeadEGreedyMLP.
// The epsilon parameter is the exploration schedule followed in
// training mode, and evalEpsilon the (usually much smaller)
// exploration rate used in evaluation mode. The hiddenSizes parameter
// defines the number of nodes in each hidden layer, and the biases,
// inits, and activations parameters configure each layer, including
// the final linear layer that is always added so that the network has
// one output per environmental action.
func NewMultiHeadEGreedyMLP(epsilon, evalEpsilon params.Parameter,
	e env.Environment, g *G.ExprGraph, hiddenSizes []int, biases []bool,
	inits []G.InitWFn, activations []*network.Activation,
	seed int64) (agent.EGreedyNNPolicy, error) {
	// Calculate the number of actions and state features
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := e.ObservationSpec().Shape.Len()

	net, err := network.NewQMLP(features, 1, numActions, g, hiddenSizes,
		biases, inits, activations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy network: %v",
			err)
	}

	source := rand.NewSource(seed)
	rng := rand.New(source)

	nn := MultiHeadEGreedyMLP{
		NeuralNet:   net,
		epsilon:     epsilon,
		evalEpsilon: evalEpsilon,
		rng:         rng,
		seed:        seed,
	}
	nn.vm = G.NewTapeMachine(nn.Graph())

	return &nn, nil
}

// fromNetwork returns a policy using an existing network
func fromNetwork(net network.NeuralNet, epsilon,
	evalEpsilon params.Parameter, eval bool,
	seed int64) *MultiHeadEGreedyMLP {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	nn := &MultiHeadEGreedyMLP{
		NeuralNet:   net,
		epsilon:     epsilon,
		evalEpsilon: evalEpsilon,
		eval:        eval,
		rng:         rng,
		seed:        seed,
	}
	nn.vm = G.NewTapeMachine(nn.Graph())

	return nn
}

// Network returns the neural network function approximator that the
// policy uses.
func (e *MultiHeadEGreedyMLP) Network() network.NeuralNet {
	return e.NeuralNet
}

// Clone clones a MultiHeadEGreedyMLP
func (e *MultiHeadEGreedyMLP) Clone() (agent.NNPolicy, error) {
	return e.CloneWithBatch(e.BatchSize())
}

// CloneWithBatch clones a MultiHeadEGreedyMLP with a new input batch
// size
func (e *MultiHeadEGreedyMLP) CloneWithBatch(
	batchSize int) (agent.NNPolicy, error) {
	net, err := e.NeuralNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not clone "+
			"policy: %v", err)
	}

	return fromNetwork(net, e.epsilon, e.evalEpsilon, e.eval, e.seed), nil
}

// SetEpsilon sets the exploration schedule followed in training mode.
// The new schedule takes effect on the next action selection.
func (e *MultiHeadEGreedyMLP) SetEpsilon(p params.Parameter) {
	e.epsilon = p
}

// Epsilon returns the current value of the active exploration rate
func (e *MultiHeadEGreedyMLP) Epsilon() float64 {
	if e.eval {
		return e.evalEpsilon.Value()
	}
	return e.epsilon.Value()
}

// Eval sets the policy to evaluation mode
func (e *MultiHeadEGreedyMLP) Eval() {
	e.eval = true
}

// Train sets the policy to training mode
func (e *MultiHeadEGreedyMLP) Train() {
	e.eval = false
}

// IsEval returns whether the policy is in evaluation mode
func (e *MultiHeadEGreedyMLP) IsEval() bool {
	return e.eval
}

// SelectAction runs the policy's network on the observation of t and
// selects an action epsilon greedily with respect to the predicted
// action values.
func (e *MultiHeadEGreedyMLP) SelectAction(t timestep.TimeStep) *mat.VecDense {
	obs := t.Observation

	data := make([]float64, obs.Len())
	for i := range data {
		data[i] = obs.AtVec(i)
	}
	if err := e.SetInput(data); err != nil {
		panic(fmt.Sprintf("selectaction: could not set input: %v", err))
	}

	e.vm.Reset()
	if err := e.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run policy "+
			"network: %v", err))
	}
	actionValues := e.Output().Data().([]float64)

	var epsilon float64
	if e.eval {
		epsilon = e.evalEpsilon.Value()
	} else {
		epsilon = e.epsilon.Next()
	}

	// With probability epsilon return a uniformly random action
	if probability := e.rng.Float64(); probability < epsilon {
		action := e.rng.Intn(e.numActions())
		return mat.NewVecDense(1, []float64{float64(action)})
	}

	action := floatutils.ArgMax(actionValues...)
	return mat.NewVecDense(1, []float64{float64(action)})
}

// Close closes the policy's virtual machine
func (e *MultiHeadEGreedyMLP) Close() error {
	return e.vm.Close()
}

// numActions returns the number of actions that the policy chooses
// between
func (e *MultiHeadEGreedyMLP) numActions() int {
	return e.Outputs()
}

// GobEncode implements the gob.GobEncoder interface
func (e *MultiHeadEGreedyMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(&e.NeuralNet); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode network: %v",
			err)
	}
	if err := enc.Encode(&e.epsilon); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode epsilon: %v",
			err)
	}
	if err := enc.Encode(&e.evalEpsilon); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode evaluation "+
			"epsilon: %v", err)
	}
	if err := enc.Encode(e.eval); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode mode: %v", err)
	}
	if err := enc.Encode(e.seed); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode seed: %v", err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *MultiHeadEGreedyMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	if err := dec.Decode(&e.NeuralNet); err != nil {
		return fmt.Errorf("gobdecode: could not decode network: %v", err)
	}
	if err := dec.Decode(&e.epsilon); err != nil {
		return fmt.Errorf("gobdecode: could not decode epsilon: %v", err)
	}
	if err := dec.Decode(&e.evalEpsilon); err != nil {
		return fmt.Errorf("gobdecode: could not decode evaluation "+
			"epsilon: %v", err)
	}
	if err := dec.Decode(&e.eval); err != nil {
		return fmt.Errorf("gobdecode: could not decode mode: %v", err)
	}
	if err := dec.Decode(&e.seed); err != nil {
		return fmt.Errorf("gobdecode: could not decode seed: %v", err)
	}

	source := rand.NewSource(e.seed)
	e.rng = rand.New(source)

	if e.vm != nil {
		e.vm.Close()
	}
	e.vm = G.NewTapeMachine(e.Graph())

	return nil
}
