package dqn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/deeprl/deeprl/environment"
	"github.com/deeprl/deeprl/environment/classiccontrol/mountaincar"
	"github.com/deeprl/deeprl/experiment/checkpointer"
	"github.com/deeprl/deeprl/expreplay"
	"github.com/deeprl/deeprl/initwfn"
	"github.com/deeprl/deeprl/network"
	"github.com/deeprl/deeprl/params"
	"github.com/deeprl/deeprl/solver"
	ts "github.com/deeprl/deeprl/timestep"
)

func testEnv(t *testing.T) (env.Environment, ts.TimeStep) {
	t.Helper()

	starter := env.NewUniformStarter([]r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}, 37)
	task := mountaincar.NewGoal(starter, 1000, mountaincar.GoalPosition)

	m, first := mountaincar.New(task, 0.99)
	return m, first
}

func testConfig(t *testing.T) Config {
	t.Helper()

	init, err := initwfn.NewGlorotU(1.0)
	require.NoError(t, err)
	adam, err := solver.NewDefaultAdam(0.001, 2)
	require.NoError(t, err)

	return Config{
		PolicyLayers: []int{5},
		Biases:       []bool{true},
		Activations:  []*network.Activation{network.ReLU()},
		InitWFn:      init,
		Solver:       adam,
		Epsilon:      params.NewConstant(1.0),
		EvalEpsilon:  params.NewConstant(0.0),
		ReplayBuffer: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			SampleSize:        2,
			MinReplayCapacity: 4,
			MaxReplayCapacity: 100,
		},
		Tau:                  1.0,
		TargetUpdateInterval: 3,
		BatchSize:            2,
	}
}

// fill records n environmental transitions with the agent, starting
// at the timestep from, and returns the last timestep taken
func fill(t *testing.T, agent *DQN, e env.Environment, from ts.TimeStep,
	n int) ts.TimeStep {
	t.Helper()

	if from.First() {
		require.NoError(t, agent.ObserveFirst(from))
	}

	step := from
	for i := 0; i < n; i++ {
		action := agent.SelectAction(step)
		next, last := e.Step(action)
		require.NoError(t, agent.Observe(action, next))
		require.False(t, last)
		step = next
	}
	return step
}

// weights returns the backing data of every learnable in the network
func weights(net network.NeuralNet) [][]float64 {
	var w [][]float64
	for _, learnable := range net.Learnables() {
		data := learnable.Value().Data().([]float64)
		w = append(w, append([]float64(nil), data...))
	}
	return w
}

func sameWeights(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func TestStepIsNoOpUntilMinSamples(t *testing.T) {
	e, first := testEnv(t)
	agent, err := New(e, testConfig(t), 14)
	require.NoError(t, err)
	defer agent.Close()

	// Three transitions is below the buffer's minimum of four
	step := fill(t, agent, e, first, 3)

	before := weights(agent.TrainNet())
	require.NoError(t, agent.Step())
	require.Equal(t, 0, agent.GradientSteps())
	require.True(t, sameWeights(before, weights(agent.TrainNet())))

	fill(t, agent, e, step, 1)
	require.NoError(t, agent.Step())
	require.Equal(t, 1, agent.GradientSteps())
	require.False(t, sameWeights(before, weights(agent.TrainNet())))
}

func TestTargetNetworkHardSyncAtInterval(t *testing.T) {
	e, first := testEnv(t)
	agent, err := New(e, testConfig(t), 14)
	require.NoError(t, err)
	defer agent.Close()

	fill(t, agent, e, first, 10)

	// The target network starts as a copy of the learned network and
	// holds its weights fixed between updates
	require.True(t,
		sameWeights(weights(agent.TrainNet()), weights(agent.TargetNet())))

	require.NoError(t, agent.Step())
	require.NoError(t, agent.Step())
	require.False(t,
		sameWeights(weights(agent.TrainNet()), weights(agent.TargetNet())))

	// The third gradient step copies the learned weights outright
	require.NoError(t, agent.Step())
	require.Equal(t, 3, agent.GradientSteps())
	require.True(t,
		sameWeights(weights(agent.TrainNet()), weights(agent.TargetNet())))

	require.NoError(t, agent.Step())
	require.False(t,
		sameWeights(weights(agent.TrainNet()), weights(agent.TargetNet())))
}

func TestBehaviourPolicyTracksLearnedWeights(t *testing.T) {
	e, first := testEnv(t)
	agent, err := New(e, testConfig(t), 14)
	require.NoError(t, err)
	defer agent.Close()

	fill(t, agent, e, first, 10)
	require.NoError(t, agent.Step())

	require.True(t, sameWeights(weights(agent.TrainNet()),
		weights(agent.Policy().Network())))
}

func TestSaveLoadRestoresAgent(t *testing.T) {
	config := testConfig(t)
	config.Epsilon = params.NewLinearDecay(1.0, 0.01, 100)

	e, first := testEnv(t)
	agent, err := New(e, config, 14)
	require.NoError(t, err)
	defer agent.Close()

	// Filling draws the exploration schedule once per selected action
	fill(t, agent, e, first, 10)
	for i := 0; i < 5; i++ {
		require.NoError(t, agent.Step())
	}

	path := filepath.Join(t.TempDir(), "agent.bin")
	require.NoError(t, agent.Save(path, checkpointer.ParametersAndBuffer))

	restoredConfig := testConfig(t)
	restoredConfig.Epsilon = params.NewLinearDecay(1.0, 0.01, 100)
	e2, _ := testEnv(t)
	restored, err := New(e2, restoredConfig, 99)
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.Load(path))
	require.Equal(t, 5, restored.GradientSteps())
	require.True(t,
		sameWeights(weights(agent.TrainNet()), weights(restored.TrainNet())))
	require.True(t, sameWeights(weights(agent.TargetNet()),
		weights(restored.TargetNet())))
	require.True(t, sameWeights(weights(agent.TrainNet()),
		weights(restored.Policy().Network())))

	// The exploration schedule resumes from its saved position rather
	// than restarting from the fresh configuration
	require.Equal(t, agent.Policy().Epsilon(), restored.Policy().Epsilon())
	require.NotEqual(t, 1.0, restored.Policy().Epsilon())
	require.False(t, restored.IsEval())
}

func TestSaveParametersOnlySkipsBuffer(t *testing.T) {
	e, first := testEnv(t)
	agent, err := New(e, testConfig(t), 14)
	require.NoError(t, err)
	defer agent.Close()

	fill(t, agent, e, first, 10)
	for i := 0; i < 5; i++ {
		require.NoError(t, agent.Step())
	}

	path := filepath.Join(t.TempDir(), "agent.bin")
	require.NoError(t, agent.Save(path, checkpointer.Parameters))

	e2, _ := testEnv(t)
	restored, err := New(e2, testConfig(t), 99)
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.Load(path))
	require.Equal(t, 0, restored.GradientSteps())
	require.True(t,
		sameWeights(weights(agent.TrainNet()), weights(restored.TrainNet())))
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig(t)
	require.NoError(t, valid.Validate())

	noEpsilon := testConfig(t)
	noEpsilon.Epsilon = nil
	require.Error(t, noEpsilon.Validate())

	mismatchedBatch := testConfig(t)
	mismatchedBatch.ReplayBuffer.SampleSize = 4
	require.Error(t, mismatchedBatch.Validate())

	zeroTau := testConfig(t)
	zeroTau.Tau = 0.0
	require.Error(t, zeroTau.Validate())

	zeroInterval := testConfig(t)
	zeroInterval.TargetUpdateInterval = 0
	require.Error(t, zeroInterval.Validate())

	smallBuffer := testConfig(t)
	smallBuffer.ReplayBuffer.MinReplayCapacity = 1
	require.Error(t, smallBuffer.Validate())
}
