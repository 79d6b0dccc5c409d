// Package network implements neural network function approximators
// using Gorgonia
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network function approximator. A NeuralNet
// only populates a Gorgonia computational graph; an external virtual
// machine must be run to compute its predictions. See QMLP for the
// usage protocol.
type NeuralNet interface {
	// Graph returns the computational graph that the network populates
	Graph() *G.ExprGraph

	// Clone clones the network to a new graph. CloneWithBatch
	// additionally changes the input batch size of the clone.
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of rows in the network input
	BatchSize() int

	// Features returns the number of features in a single input row
	Features() int

	// Outputs returns the number of values predicted per input row
	Outputs() int

	// SetInput sets the value of the input node before the forward
	// pass is computed. Inputs are given in row-major order.
	SetInput([]float64) error

	// Set overwrites the network weights with those of another network
	// of the same architecture. Polyak instead moves the weights
	// toward the source weights by an interpolation factor tau.
	Set(NeuralNet) error
	Polyak(NeuralNet, float64) error

	// Learnables returns the learnable nodes of the network, and Model
	// returns them with their gradients for use by a solver
	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Prediction returns the graph node holding the network output,
	// and Output returns the value of that node after the graph has
	// been run
	Prediction() *G.Node
	Output() G.Value
}

// Layer is a single layer of a NeuralNet
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) Layer
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}
