package experiment

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/deeprl/deeprl/environment"
	"github.com/deeprl/deeprl/environment/classiccontrol/cartpole"
	ts "github.com/deeprl/deeprl/timestep"
)

// countingAgent always selects action 0 and records how many times
// each of its methods is called
type countingAgent struct {
	observeFirsts int
	observes      int
	fits          int
	endEpisodes   int
	eval          bool
}

func (c *countingAgent) ObserveFirst(t ts.TimeStep) error {
	c.observeFirsts++
	return nil
}

func (c *countingAgent) Observe(action mat.Vector, t ts.TimeStep) error {
	c.observes++
	return nil
}

func (c *countingAgent) Step() error {
	c.fits++
	return nil
}

func (c *countingAgent) EndEpisode() {
	c.endEpisodes++
}

func (c *countingAgent) SelectAction(t ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{0.0})
}

func (c *countingAgent) Eval()        { c.eval = true }
func (c *countingAgent) Train()       { c.eval = false }
func (c *countingAgent) IsEval() bool { return c.eval }

func swingUpEnv(t *testing.T, cutoff int) env.Environment {
	t.Helper()

	starter := env.NewUniformStarter([]r1.Interval{
		{Min: -0.05, Max: 0.05},
		{Min: -0.05, Max: 0.05},
		{Min: 3.1, Max: 3.14},
		{Min: -0.05, Max: 0.05},
	}, 14)
	task := cartpole.NewSwingUp(starter, cutoff, cartpole.FailAngle)

	e, _ := cartpole.New(task, 0.99)
	return e
}

func TestLearnFitsOnSchedule(t *testing.T) {
	agent := &countingAgent{}
	core := NewCore(swingUpEnv(t, 1000), agent)

	require.NoError(t, core.Learn(10, 2))
	require.Equal(t, 10, agent.observes)
	require.Equal(t, 5, agent.fits)

	require.Error(t, core.Learn(10, 0))
}

func TestWarmUpRecordsWithoutFitting(t *testing.T) {
	agent := &countingAgent{}
	core := NewCore(swingUpEnv(t, 1000), agent)

	require.NoError(t, core.WarmUp(10))
	require.Equal(t, 10, agent.observes)
	require.Equal(t, 0, agent.fits)
}

func TestLearnRestartsEpisodesTransparently(t *testing.T) {
	agent := &countingAgent{}
	core := NewCore(swingUpEnv(t, 5), agent)

	// Episodes end at steps 5 and 10, so a 12 step phase spans three
	// episodes
	require.NoError(t, core.Learn(12, 1))
	require.Equal(t, 12, agent.observes)
	require.Equal(t, 2, agent.endEpisodes)
	require.Equal(t, 3, agent.observeFirsts)
}

func TestEvaluateReturnsCompletedEpisodes(t *testing.T) {
	agent := &countingAgent{}
	core := NewCore(swingUpEnv(t, 5), agent)

	episodes, err := core.Evaluate(12)
	require.NoError(t, err)

	// The third episode never reaches its last timestep and is dropped
	require.Len(t, episodes, 2)
	for _, episode := range episodes {
		require.Equal(t, 5, episode.Steps())
		require.Equal(t, -5.0, episode.Return())
	}
}

func TestEvaluateLeavesAgentInTrainingMode(t *testing.T) {
	agent := &countingAgent{}
	core := NewCore(swingUpEnv(t, 5), agent)

	_, err := core.Evaluate(12)
	require.NoError(t, err)
	require.False(t, agent.IsEval())

	// Evaluation never records transitions or fits the agent
	require.Equal(t, 0, agent.observes)
	require.Equal(t, 0, agent.fits)
}

func TestEvaluateSwingUpPenalizesEveryStep(t *testing.T) {
	// Before any learning, a swing-up episode accumulates a reward of
	// -1 on each of its steps until the cutoff
	agent := &countingAgent{}
	cutoff := 100
	core := NewCore(swingUpEnv(t, cutoff), agent)

	episodes, err := core.Evaluate(250)
	require.NoError(t, err)

	require.Len(t, episodes, 2)
	for _, episode := range episodes {
		require.Equal(t, -float64(cutoff), episode.Return())
	}
}
