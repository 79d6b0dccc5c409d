// Package dqn implements the DQN algorithm. DQN learns action values
// with a neural network trained on minibatches sampled from an
// experience replay buffer, using a periodically synchronized target
// network to compute update targets.
package dqn

import (
	"encoding/gob"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/deeprl/deeprl/agent"
	"github.com/deeprl/deeprl/agent/nonlinear/discrete/policy"
	"github.com/deeprl/deeprl/environment"
	"github.com/deeprl/deeprl/expreplay"
	"github.com/deeprl/deeprl/experiment/checkpointer"
	"github.com/deeprl/deeprl/network"
	ts "github.com/deeprl/deeprl/timestep"
)

// DQN implements the DQN algorithm
type DQN struct {
	// Behaviour epsilon greedy policy for selecting actions. Runs on
	// a batch of a single observation and owns its own VM.
	policy agent.EGreedyNNPolicy

	// Network whose weights are adapted, taking a batch of inputs
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     G.Solver

	// Network that provides the update target for a batch of inputs.
	// Note that this is a target network, providing the update target.
	// It is not the network of a target policy.
	targetNet   network.NeuralNet
	targetNetVM G.VM

	// Variables to track target network updates
	tau                  float64 // Polyak averaging constant
	targetUpdateInterval int     // Gradient steps between target updates
	gradientSteps        int

	// selectedActions holds the one-hot actions taken at the sampled
	// states, selecting which head of the train network the loss is
	// computed on.
	selectedActions *G.Node
	numActions      int

	replay expreplay.ExperienceReplayer

	// nextStateActionValues is the input node in the graph of trainNet
	// that is given the action values of the next states, as computed
	// by targetNet. For the update:
	//
	// Q(s, a) <- Q(s, a) + α * (r + γ * max[Q(s', A)] - Q(s, a)) ∇Q(s, a)
	//
	// nextStateActionValues provides Q(s', a') for all a' in s'.
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node

	// Current state of the environment, kept to record transitions
	step ts.TimeStep

	batchSize int
}

// New creates and returns a new DQN agent
func New(e environment.Environment, config Config,
	seed int64) (*DQN, error) {
	// Ensure environment has discrete actions
	if e.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("dqn: cannot use non-discrete actions")
	}

	// Ensure actions are one-dimensional
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("dqn: actions must be 1-dimensional")
	}

	// Ensure actions are enumerated from 0
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("dqn: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	batchSize := config.BatchSize
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1

	// Each layer carries its own weight initializer, with the final
	// linear layer always added
	numLayers := len(config.PolicyLayers) + 1
	inits := make([]G.InitWFn, numLayers)
	activations := make([]*network.Activation, numLayers)
	biases := make([]bool, numLayers)
	for i := 0; i < len(config.PolicyLayers); i++ {
		inits[i] = config.InitWFn.InitWFn()
		activations[i] = config.Activations[i]
		biases[i] = config.Biases[i]
	}
	inits[numLayers-1] = config.outputInitWFn().InitWFn()
	activations[numLayers-1] = network.Identity()
	biases[numLayers-1] = true

	// Behaviour policy for selecting actions
	behaviourPolicy, err := policy.NewMultiHeadEGreedyMLP(
		config.Epsilon,
		config.EvalEpsilon,
		e,
		G.NewGraph(),
		config.PolicyLayers,
		biases,
		inits,
		activations,
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"policy: %v", err)
	}

	// Create the training network which learns the weights
	trainNet, err := behaviourPolicy.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning "+
			"network: %v", err)
	}
	gTrain := trainNet.Graph()

	// Create the target network which provides the update target
	targetNet, err := behaviourPolicy.Network().CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target "+
			"network: %v", err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// Create nodes to compute the update target: r + γ * max[Q(s', A)]
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("discount"))

	// Compute the update target
	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// Actions selected in the sampled states. These are needed to
	// compute the loss using the correct action value, since the
	// network outputs one value per environmental action.
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, numActions),
	)
	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Compute the mean smooth L1 TD error, in its pseudo-Huber form
	// sqrt(1 + err²) - 1, which is quadratic near 0 and linear in the
	// tails
	one := G.NewConstant(1.0)
	losses := G.Must(G.Sub(updateTarget, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	losses = G.Must(G.Add(losses, one))
	losses = G.Must(G.Sqrt(losses))
	losses = G.Must(G.Sub(losses, one))
	cost := G.Must(G.Mean(losses))

	// Compute the gradient with respect to the cost
	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}

	// Compile the trainNet graph into a VM
	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Learnables()...),
	)

	// Create the experience replay buffer. The replay buffer stores
	// selected actions as one-hot vectors.
	numFeatures := e.ObservationSpec().Shape.Len()
	replay, err := config.ReplayBuffer.Create(numFeatures, numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	return &DQN{
		policy: behaviourPolicy,

		trainNet:   trainNet,
		trainNetVM: trainNetVM,
		solver:     config.Solver,

		targetNet:   targetNet,
		targetNetVM: targetNetVM,

		tau:                  config.Tau,
		targetUpdateInterval: config.TargetUpdateInterval,
		gradientSteps:        0,

		selectedActions: selectedActions,
		numActions:      numActions,

		replay: replay,

		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,

		step:      ts.TimeStep{},
		batchSize: batchSize,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DQN) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n",
			t.Number)
	}
	d.step = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep, adding the resulting transition to the replay buffer
func (d *DQN) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods cannot use "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}

	// The replay buffer stores actions as one-hot vectors
	oneHotAction := mat.NewVecDense(d.numActions, nil)
	oneHotAction.SetVec(int(action.AtVec(0)), 1.0)

	transition := ts.NewTransition(d.step, oneHotAction, nextStep, nil)
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not add to replay buffer: %v",
			err)
	}

	d.step = nextStep
	return nil
}

// Step updates the weights of the agent's networks. Until the replay
// buffer holds its minimum number of samples, Step is a no-op.
func (d *DQN) Step() error {
	S, A, R, discount, NextS, _, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample replay buffer: %v", err)
	}

	// One-hot vectors of the actions taken at the sampled states
	prevActions := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(A),
	)
	if err := G.Let(d.selectedActions, prevActions); err != nil {
		return fmt.Errorf("step: could not set selected actions: %v", err)
	}

	// Predict the action values in the sampled states S
	if err := d.trainNet.SetInput(S); err != nil {
		return fmt.Errorf("step: could not set trainNet input: %v", err)
	}

	// Predict the action values in the next states NextS
	if err := d.targetNet.SetInput(NextS); err != nil {
		return fmt.Errorf("step: could not set target net input: %v", err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target network: %v", err)
	}

	// Set the action values for the actions in the next states
	err = G.Let(d.nextStateActionValues, d.targetNet.Output())
	if err != nil {
		return fmt.Errorf("step: could not set next state-action "+
			"values: %v", err)
	}

	rewardTensor := tensor.New(tensor.WithBacking(R),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.rewards, rewardTensor); err != nil {
		return fmt.Errorf("step: could not set rewards: %v", err)
	}

	// The sampled discount is 0 for transitions that ended an episode,
	// so targets never bootstrap across episode boundaries
	discountTensor := tensor.New(tensor.WithBacking(discount),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.discounts, discountTensor); err != nil {
		return fmt.Errorf("step: could not set discounts: %v", err)
	}

	d.targetNetVM.Reset()

	// Run the learning step
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run learning step: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	// Update the target network on schedule
	if d.gradientSteps%d.targetUpdateInterval == 0 {
		if d.tau == 1.0 {
			err = d.targetNet.Set(d.trainNet)
		} else {
			err = d.targetNet.Polyak(d.trainNet, d.tau)
		}
		if err != nil {
			return fmt.Errorf("step: could not update target "+
				"network: %v", err)
		}
	}

	// The behaviour policy always acts with the newly learned weights
	if err := d.policy.Network().Set(d.trainNet); err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v",
			err)
	}

	return nil
}

// SelectAction returns an action selected by the behaviour policy at
// the timestep t
func (d *DQN) SelectAction(t ts.TimeStep) *mat.VecDense {
	return d.policy.SelectAction(t)
}

// GradientSteps returns the number of gradient steps taken so far
func (d *DQN) GradientSteps() int {
	return d.gradientSteps
}

// TargetNet returns the target network of the agent
func (d *DQN) TargetNet() network.NeuralNet {
	return d.targetNet
}

// TrainNet returns the learned network of the agent
func (d *DQN) TrainNet() network.NeuralNet {
	return d.trainNet
}

// Policy returns the behaviour policy of the agent
func (d *DQN) Policy() agent.EGreedyNNPolicy {
	return d.policy
}

// ReplayCapacity returns the current number of samples in the agent's
// replay buffer
func (d *DQN) ReplayCapacity() int {
	return d.replay.Capacity()
}

// Eval sets the agent into evaluation mode
func (d *DQN) Eval() {
	d.policy.Eval()
}

// Train sets the agent into training mode
func (d *DQN) Train() {
	d.policy.Train()
}

// IsEval returns whether the agent is in evaluation mode
func (d *DQN) IsEval() bool {
	return d.policy.IsEval()
}

// EndEpisode performs cleanup at the end of an episode
func (d *DQN) EndEpisode() {}

// Close closes the virtual machines of the agent
func (d *DQN) Close() error {
	if err := d.policy.Close(); err != nil {
		return fmt.Errorf("close: could not close behaviour policy: %v",
			err)
	}
	if err := d.trainNetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close learning VM: %v", err)
	}
	if err := d.targetNetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close target VM: %v", err)
	}
	return nil
}

// Save serializes the agent's networks and behaviour policy, including
// the position of its exploration schedule, to the file at path. When
// mode is ParametersAndBuffer, the contents of the replay buffer and
// the gradient step count are saved as well, so that training can
// resume from the checkpoint.
func (d *DQN) Save(path string, mode checkpointer.SaveMode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)

	if err := enc.Encode(&d.trainNet); err != nil {
		return fmt.Errorf("save: could not encode learned network: %v", err)
	}
	if err := enc.Encode(&d.targetNet); err != nil {
		return fmt.Errorf("save: could not encode target network: %v", err)
	}
	if err := enc.Encode(&d.policy); err != nil {
		return fmt.Errorf("save: could not encode behaviour policy: %v", err)
	}

	saveBuffer := mode == checkpointer.ParametersAndBuffer
	if err := enc.Encode(saveBuffer); err != nil {
		return fmt.Errorf("save: could not encode save mode: %v", err)
	}
	if saveBuffer {
		if err := enc.Encode(d.gradientSteps); err != nil {
			return fmt.Errorf("save: could not encode gradient steps: %v",
				err)
		}
		if err := enc.Encode(d.replay); err != nil {
			return fmt.Errorf("save: could not encode replay buffer: %v",
				err)
		}
	}

	return nil
}

// Load restores the agent's networks and behaviour policy from the
// file at path, written by Save. The agent must have been created with
// the same configuration as the agent that was saved. The restored
// policy carries the saved exploration schedule position and
// evaluation mode, replacing whatever schedule the agent was created
// with. If the checkpoint holds a replay buffer, the buffer contents
// and gradient step count are restored as well.
func (d *DQN) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: could not open file: %v", err)
	}
	defer f.Close()

	dec := gob.NewDecoder(f)

	var trainNet network.NeuralNet
	if err := dec.Decode(&trainNet); err != nil {
		return fmt.Errorf("load: could not decode learned network: %v", err)
	}
	var targetNet network.NeuralNet
	if err := dec.Decode(&targetNet); err != nil {
		return fmt.Errorf("load: could not decode target network: %v", err)
	}
	var behaviourPolicy agent.EGreedyNNPolicy
	if err := dec.Decode(&behaviourPolicy); err != nil {
		return fmt.Errorf("load: could not decode behaviour policy: %v",
			err)
	}

	if err := d.trainNet.Set(trainNet); err != nil {
		return fmt.Errorf("load: could not restore learned network: %v",
			err)
	}
	if err := d.targetNet.Set(targetNet); err != nil {
		return fmt.Errorf("load: could not restore target network: %v", err)
	}
	if err := d.policy.Close(); err != nil {
		return fmt.Errorf("load: could not close behaviour policy: %v", err)
	}
	d.policy = behaviourPolicy

	var hasBuffer bool
	if err := dec.Decode(&hasBuffer); err != nil {
		return fmt.Errorf("load: could not decode save mode: %v", err)
	}
	if hasBuffer {
		if err := dec.Decode(&d.gradientSteps); err != nil {
			return fmt.Errorf("load: could not decode gradient steps: %v",
				err)
		}
		if err := dec.Decode(d.replay); err != nil {
			return fmt.Errorf("load: could not decode replay buffer: %v",
				err)
		}
	}

	return nil
}
