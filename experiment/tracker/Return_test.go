package tracker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/deeprl/deeprl/timestep"
)

func step(stepType ts.StepType, reward float64, number int) ts.TimeStep {
	obs := mat.NewVecDense(1, []float64{0.0})
	return ts.New(stepType, reward, 1.0, obs, number)
}

func trackEpisode(r Tracker, rewards []float64) {
	r.Track(step(ts.First, 0.0, 0))
	for i, reward := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		r.Track(step(stepType, reward, i+1))
	}
}

func TestTrackRecordsEpisodeReturns(t *testing.T) {
	r := NewReturn("unused")

	trackEpisode(r, []float64{1.0, 2.0, 3.0})
	trackEpisode(r, []float64{-1.0, -1.0})

	returns := r.(*Return).EpisodeReturns()
	require.Equal(t, []float64{6.0, -2.0}, returns)
}

func TestTrackDiscardsPartialEpisodes(t *testing.T) {
	r := NewReturn("unused")

	// An episode cut short by a phase boundary restarts at a first
	// timestep without ever reaching a last one
	r.Track(step(ts.First, 0.0, 0))
	r.Track(step(ts.Mid, 5.0, 1))

	trackEpisode(r, []float64{1.0, 1.0})

	returns := r.(*Return).EpisodeReturns()
	require.Equal(t, []float64{2.0}, returns)
}

func TestTrackPanicsOnNonSequentialSteps(t *testing.T) {
	r := NewReturn("unused")

	r.Track(step(ts.First, 0.0, 0))
	r.Track(step(ts.Mid, 1.0, 1))

	require.Panics(t, func() { r.Track(step(ts.Mid, 1.0, 3)) })
}

func TestSaveLoadRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	r := NewReturn(filename)

	trackEpisode(r, []float64{1.0, 2.0})
	trackEpisode(r, []float64{4.0})
	require.NoError(t, r.Save())

	data, err := LoadData(filename)
	require.NoError(t, err)
	require.Equal(t, []float64{3.0, 4.0}, data)
}
