package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
)

type activationType string

const (
	relu     activationType = "relu"
	tanh     activationType = "tanh"
	identity activationType = "identity"
)

// Activation is an activation function for a network layer. The zero
// value is not usable; construct Activations with the package-level
// constructors. Activation is gob serializable so that networks using
// them can be saved to disk.
type Activation struct {
	f func(*G.Node) (*G.Node, error)
	activationType
}

// ReLU returns a rectified linear unit activation
func ReLU() *Activation {
	return &Activation{
		f:              G.Rectify,
		activationType: relu,
	}
}

// TanH returns a hyperbolic tangent activation
func TanH() *Activation {
	return &Activation{
		f:              G.Tanh,
		activationType: tanh,
	}
}

// Identity returns the identity activation, used for linear layers
func Identity() *Activation {
	return &Activation{
		f:              func(n *G.Node) (*G.Node, error) { return n, nil },
		activationType: identity,
	}
}

// IsIdentity returns whether the activation is the identity function
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// fwd applies the activation to a graph node
func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	if a.f == nil {
		return nil, fmt.Errorf("fwd: activation has no function")
	}
	return a.f(x)
}

// GobEncode implements gob.GobEncoder
func (a *Activation) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(a.activationType); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activation "+
			"type: %v", err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder
func (a *Activation) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var t activationType
	if err := dec.Decode(&t); err != nil {
		return fmt.Errorf("gobdecode: could not decode activation "+
			"type: %v", err)
	}

	switch t {
	case relu:
		*a = *ReLU()

	case tanh:
		*a = *TanH()

	case identity:
		*a = *Identity()

	default:
		return fmt.Errorf("gobdecode: no such activation type: %v", t)
	}

	return nil
}
