package network

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"

	"github.com/deeprl/deeprl/utils/floatutils"
)

// runNet sets the network input and computes its forward pass
func runNet(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	require.NoError(t, net.SetInput(input))

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())
	defer vm.Reset()

	return net.Output().Data().([]float64)
}

func constNet(t *testing.T, batchSize int, value float64) NeuralNet {
	t.Helper()

	net, err := NewQMLP(2, batchSize, 3, G.NewGraph(), []int{},
		[]bool{false}, []G.InitWFn{G.ValuesOf(value)},
		[]*Activation{Identity()})
	require.NoError(t, err)
	return net
}

func TestQMLPForwardPass(t *testing.T) {
	// A linear network with all weights 0.5 and no bias computes
	// 0.5 * (x1 + x2) at every output head
	net := constNet(t, 1, 0.5)
	out := runNet(t, net, []float64{1.0, 3.0})
	require.Equal(t, []float64{2.0, 2.0, 2.0}, out)
}

func TestQMLPZeroInitOutputsZero(t *testing.T) {
	net, err := NewQMLP(2, 1, 3, G.NewGraph(), []int{4}, []bool{true, true},
		[]G.InitWFn{G.Zeroes(), G.Zeroes()},
		[]*Activation{ReLU(), Identity()})
	require.NoError(t, err)

	out := runNet(t, net, []float64{1.0, -2.0})
	require.Equal(t, []float64{0.0, 0.0, 0.0}, out)
}

func TestQMLPBatchForwardPass(t *testing.T) {
	net := constNet(t, 2, 1.0)
	out := runNet(t, net, []float64{
		1.0, 2.0,
		3.0, 4.0,
	})
	require.Equal(t, []float64{3.0, 3.0, 3.0, 7.0, 7.0, 7.0}, out)
}

func TestQMLPInvalidArgs(t *testing.T) {
	_, err := NewQMLP(0, 1, 3, G.NewGraph(), []int{}, []bool{true},
		[]G.InitWFn{G.Zeroes()}, []*Activation{Identity()})
	require.Error(t, err)

	// One init per layer, including the output layer
	_, err = NewQMLP(2, 1, 3, G.NewGraph(), []int{4}, []bool{true, true},
		[]G.InitWFn{G.Zeroes()}, []*Activation{ReLU(), Identity()})
	require.Error(t, err)
}

func TestSetCopiesWeights(t *testing.T) {
	dest := constNet(t, 1, 0.0)
	source := constNet(t, 1, 1.0)

	require.NoError(t, dest.Set(source))

	destWeights := dest.Learnables()[0].Value().Data().([]float64)
	sourceWeights := source.Learnables()[0].Value().Data().([]float64)
	require.True(t, floatutils.Equal(destWeights, sourceWeights))

	out := runNet(t, dest, []float64{1.0, 1.0})
	require.Equal(t, []float64{2.0, 2.0, 2.0}, out)
}

func TestSetDoesNotAliasWeights(t *testing.T) {
	dest := constNet(t, 1, 0.0)
	source := constNet(t, 1, 1.0)

	require.NoError(t, dest.Set(source))

	// Changing the source afterwards must not change the destination
	require.NoError(t, source.Set(constNet(t, 1, 2.0)))

	out := runNet(t, dest, []float64{1.0, 1.0})
	require.Equal(t, []float64{2.0, 2.0, 2.0}, out)
}

func TestPolyakInterpolatesWeights(t *testing.T) {
	dest := constNet(t, 1, 0.0)
	source := constNet(t, 1, 1.0)

	require.NoError(t, dest.Polyak(source, 0.1))

	weights := dest.Learnables()[0].Value().Data().([]float64)
	for _, w := range weights {
		require.InDelta(t, 0.1, w, 1e-12)
	}
}

func TestCloneWithBatchKeepsWeights(t *testing.T) {
	net := constNet(t, 1, 0.5)

	clone, err := net.CloneWithBatch(2)
	require.NoError(t, err)
	require.Equal(t, 2, clone.BatchSize())
	require.Equal(t, net.Features(), clone.Features())
	require.Equal(t, net.Outputs(), clone.Outputs())

	out := runNet(t, clone, []float64{
		1.0, 3.0,
		0.0, 0.0,
	})
	require.Equal(t, []float64{2.0, 2.0, 2.0, 0.0, 0.0, 0.0}, out)
}

func TestGobRoundTrip(t *testing.T) {
	net, err := NewQMLP(2, 1, 3, G.NewGraph(), []int{4}, []bool{true, true},
		[]G.InitWFn{G.GlorotU(1.0), G.GlorotU(1.0)},
		[]*Activation{ReLU(), Identity()})
	require.NoError(t, err)

	input := []float64{0.3, -0.7}
	want := runNet(t, net, input)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(&net))

	var decoded NeuralNet
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	got := runNet(t, decoded, input)
	require.True(t, floatutils.Equal(want, got),
		"decoded network should compute the same outputs \n\twant(%v) "+
			"\n\thave(%v)", want, got)
}
