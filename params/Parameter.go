// Package params implements scalar hyperparameter schedules. A
// Parameter is drawn once per use (e.g. once per action selection),
// and its value may decay from draw to draw.
package params

import "encoding/gob"

func init() {
	// Parameters are saved inside agent checkpoints
	gob.Register(&Constant{})
	gob.Register(&LinearDecay{})
}

// Parameter is a scalar hyperparameter whose value may change every
// time it is drawn. Parameters are swappable at any time: replacing
// one schedule with another takes effect on the very next draw.
type Parameter interface {
	// Next returns the current value and advances the schedule by one
	// draw
	Next() float64

	// Value returns the current value without advancing the schedule
	Value() float64
}

// Constant is a Parameter with a fixed value
type Constant struct {
	Val float64
}

// NewConstant returns a Parameter fixed at value
func NewConstant(value float64) *Constant {
	return &Constant{Val: value}
}

// Next returns the constant value
func (c *Constant) Next() float64 { return c.Val }

// Value returns the constant value
func (c *Constant) Value() float64 { return c.Val }

// LinearDecay is a Parameter that decays linearly from an initial
// value to a floor over a fixed number of draws, staying clamped at
// the floor thereafter. The value is monotone non-increasing in the
// number of draws.
type LinearDecay struct {
	Initial float64
	Floor   float64
	N       int // Number of draws over which to decay

	Draws int // Number of draws taken so far
}

// NewLinearDecay returns a Parameter decaying linearly from initial to
// floor over n draws
func NewLinearDecay(initial, floor float64, n int) *LinearDecay {
	if n <= 0 {
		panic("newLinearDecay: decay horizon must be positive")
	}
	if floor > initial {
		panic("newLinearDecay: floor must not exceed initial value")
	}

	return &LinearDecay{Initial: initial, Floor: floor, N: n}
}

// Next returns the current value and advances the schedule by one draw
func (l *LinearDecay) Next() float64 {
	value := l.Value()
	l.Draws++
	return value
}

// Value returns the current value without advancing the schedule
func (l *LinearDecay) Value() float64 {
	rate := (l.Initial - l.Floor) / float64(l.N)
	value := l.Initial - rate*float64(l.Draws)
	if value < l.Floor {
		return l.Floor
	}
	return value
}
