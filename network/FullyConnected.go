package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer is a fully connected layer of a neural network. The bias
// node may be nil, in which case no bias is added.
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds a new fully connected layer to graph g. The weight
// matrix has shape (features, units) and is initialized with init. If
// useBias, a bias vector of size units is added to each output row.
func newFCLayer(g *G.ExprGraph, features, units int, useBias bool,
	act *Activation, init G.InitWFn, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(features, units),
		G.WithName(name+"W"),
		G.WithInit(init),
	)

	var bias *G.Node
	if useBias {
		bias = G.NewVector(
			g,
			tensor.Float64,
			G.WithShape(units),
			G.WithName(name+"B"),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{
		weights: weights,
		bias:    bias,
		act:     act,
	}
}

// fwd computes the layer output for input x
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	out, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not multiply weights: %v", err)
	}

	if f.bias != nil {
		// Broadcast the bias along the batch dimension
		out, err = G.BroadcastAdd(out, f.bias, nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("fwd: could not add bias: %v", err)
		}
	}

	if f.act == nil || f.act.IsIdentity() {
		return out, nil
	}
	out, err = f.act.fwd(out)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not compute activation: %v", err)
	}
	return out, nil
}

// CloneTo clones the layer to a new graph. The cloned layer's weights
// start at the values of the original layer but do not alias them.
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	weights := f.weights.CloneTo(g)

	var bias *G.Node
	if f.bias != nil {
		bias = f.bias.CloneTo(g)
	}

	return &fcLayer{
		weights: weights,
		bias:    bias,
		act:     f.act,
	}
}

// Weights returns the weight node of the layer
func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// Bias returns the bias node of the layer, which may be nil
func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

// Activation returns the activation of the layer
func (f *fcLayer) Activation() *Activation {
	return f.act
}

// GobEncode implements gob.GobEncoder
func (f *fcLayer) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(f.weights.Value()); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode weights: %v",
			err)
	}

	hasBias := f.bias != nil
	if err := enc.Encode(hasBias); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode bias flag: %v",
			err)
	}
	if hasBias {
		if err := enc.Encode(f.bias.Value()); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode bias: %v",
				err)
		}
	}

	if err := enc.Encode(f.act); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activation: %v",
			err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The layer must already exist in
// a graph with the same architecture as the encoded layer; decoding
// overwrites the layer's weight values.
func (f *fcLayer) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var weights *tensor.Dense
	if err := dec.Decode(&weights); err != nil {
		return fmt.Errorf("gobdecode: could not decode weights: %v", err)
	}
	if err := G.Let(f.weights, weights); err != nil {
		return fmt.Errorf("gobdecode: could not set weights: %v", err)
	}

	var hasBias bool
	if err := dec.Decode(&hasBias); err != nil {
		return fmt.Errorf("gobdecode: could not decode bias flag: %v", err)
	}
	if hasBias != (f.bias != nil) {
		return fmt.Errorf("gobdecode: bias layout does not match layer")
	}
	if hasBias {
		var bias *tensor.Dense
		if err := dec.Decode(&bias); err != nil {
			return fmt.Errorf("gobdecode: could not decode bias: %v", err)
		}
		if err := G.Let(f.bias, bias); err != nil {
			return fmt.Errorf("gobdecode: could not set bias: %v", err)
		}
	}

	var act Activation
	if err := dec.Decode(&act); err != nil {
		return fmt.Errorf("gobdecode: could not decode activation: %v", err)
	}
	f.act = &act

	return nil
}
