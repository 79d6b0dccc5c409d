package expreplay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/deeprl/deeprl/timestep"
)

// makeTransition returns a transition whose state, next state, and
// reward all hold the value id, so that stored transitions can be told
// apart when sampled
func makeTransition(id float64) timestep.Transition {
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{id, id}),
		Action:    mat.NewVecDense(1, []float64{1.0}),
		Reward:    id,
		Discount:  1.0,
		NextState: mat.NewVecDense(2, []float64{id, id}),
	}
}

func newFifoBuffer(t *testing.T, min, max, batch int) ExperienceReplayer {
	buffer, err := New(NewFifoSelector(batch), min, max, 2, 1, false)
	require.NoError(t, err)
	return buffer
}

func TestSampleEmptyBuffer(t *testing.T) {
	buffer := newFifoBuffer(t, 1, 5, 1)

	_, _, _, _, _, _, err := buffer.Sample()
	require.Error(t, err)
	require.True(t, IsEmptyBuffer(err))
}

func TestSampleInsufficientSamples(t *testing.T) {
	buffer := newFifoBuffer(t, 3, 5, 1)

	require.NoError(t, buffer.Add(makeTransition(1.0)))
	require.NoError(t, buffer.Add(makeTransition(2.0)))

	_, _, _, _, _, _, err := buffer.Sample()
	require.Error(t, err)
	require.True(t, IsInsufficientSamples(err))
}

func TestCapacityNeverExceedsMax(t *testing.T) {
	buffer := newFifoBuffer(t, 1, 3, 1)

	for i := 0; i < 10; i++ {
		require.NoError(t, buffer.Add(makeTransition(float64(i))))
		require.LessOrEqual(t, buffer.Capacity(), 3)
	}
	require.Equal(t, 3, buffer.Capacity())
}

func TestFifoEvictsOldestFirst(t *testing.T) {
	buffer := newFifoBuffer(t, 1, 3, 1)

	// Fill the buffer, then overflow it by two
	for i := 1; i <= 5; i++ {
		require.NoError(t, buffer.Add(makeTransition(float64(i))))
	}

	// The oldest surviving transition should be 3: transitions 1 and 2
	// were evicted when 4 and 5 were added
	_, _, reward, _, _, _, err := buffer.Sample()
	require.NoError(t, err)
	require.Equal(t, []float64{3.0}, reward)
}

func TestFifoSampleOrder(t *testing.T) {
	buffer := newFifoBuffer(t, 1, 4, 3)

	for i := 1; i <= 6; i++ {
		require.NoError(t, buffer.Add(makeTransition(float64(i))))
	}

	// Oldest first: 3, 4, 5 survive as the three oldest
	_, _, reward, _, _, _, err := buffer.Sample()
	require.NoError(t, err)
	require.Equal(t, []float64{3.0, 4.0, 5.0}, reward)
}

func TestSampleReturnsStoredData(t *testing.T) {
	buffer := newFifoBuffer(t, 1, 5, 1)
	require.NoError(t, buffer.Add(makeTransition(7.0)))

	state, action, reward, discount, nextState, _, err := buffer.Sample()
	require.NoError(t, err)
	require.Equal(t, []float64{7.0, 7.0}, state)
	require.Equal(t, []float64{1.0}, action)
	require.Equal(t, []float64{7.0}, reward)
	require.Equal(t, []float64{1.0}, discount)
	require.Equal(t, []float64{7.0, 7.0}, nextState)
}

func TestUniformSamplesOnlyStoredData(t *testing.T) {
	buffer, err := New(NewUniformSelector(4, 14), 1, 8, 2, 1, false)
	require.NoError(t, err)

	stored := map[float64]bool{}
	for i := 1; i <= 3; i++ {
		require.NoError(t, buffer.Add(makeTransition(float64(i))))
		stored[float64(i)] = true
	}

	for trial := 0; trial < 10; trial++ {
		_, _, reward, _, _, _, err := buffer.Sample()
		require.NoError(t, err)
		require.Len(t, reward, 4)
		for _, r := range reward {
			require.True(t, stored[r], "sampled transition %v was "+
				"never stored", r)
		}
	}
}

func TestConfigCreate(t *testing.T) {
	config := Config{
		SampleMethod:      Uniform,
		SampleSize:        2,
		MinReplayCapacity: 2,
		MaxReplayCapacity: 4,
	}

	buffer, err := config.Create(2, 1, 42)
	require.NoError(t, err)
	require.Equal(t, 2, buffer.BatchSize())
	require.Equal(t, 2, buffer.MinCapacity())
	require.Equal(t, 4, buffer.MaxCapacity())
}

func TestNewInvalidArgs(t *testing.T) {
	_, err := New(NewFifoSelector(1), 0, 5, 2, 1, false)
	require.Error(t, err)

	_, err = New(NewFifoSelector(1), 5, 3, 2, 1, false)
	require.Error(t, err)

	_, err = New(NewFifoSelector(10), 1, 5, 2, 1, false)
	require.Error(t, err)
}
