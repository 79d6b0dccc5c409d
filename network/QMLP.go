package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func init() {
	gob.Register(&qMLP{})
}

// qMLP is a multi-layer perceptron that predicts one value per output
// head for each input row. When used as an action value function, the
// network takes a batch of states and predicts the value of every
// action in each state, so that head i holds the value of action i.
//
// The network only populates a computational graph. To compute
// predictions, set the input with SetInput, then run a virtual machine
// on the network's graph. Output then returns the predicted values in
// row-major order.
type qMLP struct {
	g      *G.ExprGraph
	layers []Layer

	input      *G.Node
	prediction *G.Node
	predVal    G.Value

	features  int
	batchSize int
	outputs   int

	hiddenSizes []int
	biases      []bool
	activations []*Activation
}

// NewQMLP returns a new multi-layer perceptron with len(hiddenSizes)
// hidden layers and a final linear layer of size outputs. The
// parameters biases, inits, and activations configure each layer in
// order, including the output layer, and must have length
// len(hiddenSizes) + 1. The network is added to the graph g, and its
// input node has shape (batchSize, features).
func NewQMLP(features, batchSize, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, inits []G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newqmlp: invalid number of features %d",
			features)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("newqmlp: invalid batch size %d", batchSize)
	}
	if outputs <= 0 {
		return nil, fmt.Errorf("newqmlp: invalid number of outputs %d",
			outputs)
	}

	numLayers := len(hiddenSizes) + 1
	if len(biases) != numLayers {
		return nil, fmt.Errorf("newqmlp: must have one bias flag per "+
			"layer \n\twant(%d) \n\thave(%d)", numLayers, len(biases))
	}
	if len(inits) != numLayers {
		return nil, fmt.Errorf("newqmlp: must have one weight init per "+
			"layer \n\twant(%d) \n\thave(%d)", numLayers, len(inits))
	}
	if len(activations) != numLayers {
		return nil, fmt.Errorf("newqmlp: must have one activation per "+
			"layer \n\twant(%d) \n\thave(%d)", numLayers, len(activations))
	}

	layers := make([]Layer, numLayers)
	in := features
	for i, units := range hiddenSizes {
		layers[i] = newFCLayer(g, in, units, biases[i], activations[i],
			inits[i], fmt.Sprintf("L%d", i))
		in = units
	}
	layers[numLayers-1] = newFCLayer(g, in, outputs, biases[numLayers-1],
		activations[numLayers-1], inits[numLayers-1],
		fmt.Sprintf("L%d", numLayers-1))

	network := &qMLP{
		g:           g,
		layers:      layers,
		features:    features,
		batchSize:   batchSize,
		outputs:     outputs,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}

	network.input = G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batchSize, features),
		G.WithName("input"),
	)
	if err := network.fwd(network.input); err != nil {
		return nil, fmt.Errorf("newqmlp: could not compute forward "+
			"pass: %v", err)
	}

	return network, nil
}

// fwd populates the graph with the forward pass of the network
func (q *qMLP) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, layer := range q.layers {
		pred, err = layer.fwd(pred)
		if err != nil {
			return fmt.Errorf("fwd: could not compute layer %d: %v", i, err)
		}
	}

	q.prediction = pred
	G.Read(q.prediction, &q.predVal)

	return nil
}

// Graph returns the graph that the network populates
func (q *qMLP) Graph() *G.ExprGraph {
	return q.g
}

// BatchSize returns the number of rows in the network input
func (q *qMLP) BatchSize() int {
	return q.batchSize
}

// Features returns the number of features in a single input row
func (q *qMLP) Features() int {
	return q.features
}

// Outputs returns the number of output heads of the network
func (q *qMLP) Outputs() int {
	return q.outputs
}

// Prediction returns the node holding the network output
func (q *qMLP) Prediction() *G.Node {
	return q.prediction
}

// Output returns the value of the network output after the graph has
// been run
func (q *qMLP) Output() G.Value {
	return q.predVal
}

// SetInput sets the network input, given in row-major order, before
// the graph is run
func (q *qMLP) SetInput(input []float64) error {
	if len(input) != q.features*q.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs "+
			"\n\twant(%d) \n\thave(%d)", q.features*q.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(q.batchSize, q.features),
	)
	return G.Let(q.input, inputTensor)
}

// Clone clones the network to a new graph, keeping its weight values
func (q *qMLP) Clone() (NeuralNet, error) {
	return q.CloneWithBatch(q.batchSize)
}

// CloneWithBatch clones the network to a new graph, keeping its weight
// values but changing the batch size of its input
func (q *qMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("clonewithbatch: invalid batch size %d",
			batchSize)
	}

	g := G.NewGraph()
	layers := make([]Layer, len(q.layers))
	for i, layer := range q.layers {
		layers[i] = layer.CloneTo(g)
	}

	network := &qMLP{
		g:           g,
		layers:      layers,
		features:    q.features,
		batchSize:   batchSize,
		outputs:     q.outputs,
		hiddenSizes: q.hiddenSizes,
		biases:      q.biases,
		activations: q.activations,
	}

	network.input = G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batchSize, q.features),
		G.WithName("input"),
	)
	if err := network.fwd(network.input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return network, nil
}

// Set copies the weights of source into the network. The source
// network must have the same architecture. The copied values do not
// alias the source values.
func (q *qMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: networks have a different number of "+
			"learnables \n\twant(%d) \n\thave(%d)", len(nodes),
			len(sourceNodes))
	}

	for i, node := range nodes {
		weights := sourceNodes[i].Value().(*tensor.Dense).Clone()
		if err := G.Let(node, weights); err != nil {
			return fmt.Errorf("set: could not set weights: %v", err)
		}
	}
	return nil
}

// Polyak moves the weights of the network toward the weights of source
// by the interpolation factor tau, so that each weight becomes
// tau * source + (1 - tau) * current.
func (q *qMLP) Polyak(source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("polyak: networks have a different number of "+
			"learnables \n\twant(%d) \n\thave(%d)", len(nodes),
			len(sourceNodes))
	}

	for i, node := range nodes {
		weights, err := node.Value().(*tensor.Dense).MulScalar(1-tau, true)
		if err != nil {
			return fmt.Errorf("polyak: could not scale weights: %v", err)
		}

		sourceWeights, err := sourceNodes[i].Value().(*tensor.Dense).
			MulScalar(tau, true)
		if err != nil {
			return fmt.Errorf("polyak: could not scale source "+
				"weights: %v", err)
		}

		sum, err := weights.Add(sourceWeights)
		if err != nil {
			return fmt.Errorf("polyak: could not average weights: %v", err)
		}

		if err := G.Let(node, sum); err != nil {
			return fmt.Errorf("polyak: could not set weights: %v", err)
		}
	}
	return nil
}

// Learnables returns the learnable nodes of the network
func (q *qMLP) Learnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(q.layers))
	for _, layer := range q.layers {
		learnables = append(learnables, layer.Weights())
		if bias := layer.Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return learnables
}

// Model returns the learnable nodes of the network with their
// gradients for use by a solver
func (q *qMLP) Model() []G.ValueGrad {
	learnables := q.Learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, learnable := range learnables {
		model[i] = learnable
	}
	return model
}

// GobEncode implements gob.GobEncoder
func (q *qMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(q.features); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode features: %v",
			err)
	}
	if err := enc.Encode(q.batchSize); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch "+
			"size: %v", err)
	}
	if err := enc.Encode(q.outputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode outputs: %v",
			err)
	}
	if err := enc.Encode(q.hiddenSizes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden "+
			"sizes: %v", err)
	}
	if err := enc.Encode(q.biases); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases: %v",
			err)
	}
	if err := enc.Encode(q.activations); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode "+
			"activations: %v", err)
	}

	for i, layer := range q.layers {
		fc, ok := layer.(*fcLayer)
		if !ok {
			return nil, fmt.Errorf("gobencode: layer %d is not "+
				"serializable", i)
		}
		if err := enc.Encode(fc); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode layer "+
				"%d: %v", i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The decoded network is built on
// a fresh graph.
func (q *qMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var features, batchSize, outputs int
	if err := dec.Decode(&features); err != nil {
		return fmt.Errorf("gobdecode: could not decode features: %v", err)
	}
	if err := dec.Decode(&batchSize); err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size: %v", err)
	}
	if err := dec.Decode(&outputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode outputs: %v", err)
	}

	var hiddenSizes []int
	if err := dec.Decode(&hiddenSizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes: %v",
			err)
	}
	var biases []bool
	if err := dec.Decode(&biases); err != nil {
		return fmt.Errorf("gobdecode: could not decode biases: %v", err)
	}
	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations: %v",
			err)
	}

	// Rebuild the architecture with placeholder weights, then decode
	// each layer over it
	numLayers := len(hiddenSizes) + 1
	inits := make([]G.InitWFn, numLayers)
	for i := range inits {
		inits[i] = G.Zeroes()
	}

	decoded, err := NewQMLP(features, batchSize, outputs, G.NewGraph(),
		hiddenSizes, biases, inits, activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not rebuild network: %v", err)
	}
	network := decoded.(*qMLP)

	for i := range network.layers {
		if err := dec.Decode(network.layers[i]); err != nil {
			return fmt.Errorf("gobdecode: could not decode layer "+
				"%d: %v", i, err)
		}
	}

	*q = *network
	return nil
}
