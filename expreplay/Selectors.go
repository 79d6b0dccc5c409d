package expreplay

import (
	"fmt"
	"math/rand"
)

// SelectorType describes the available Selector types
type SelectorType string

// Available Selector types
const (
	Uniform SelectorType = "Uniform"
	Fifo    SelectorType = "Fifo"
)

// CreateSelector is a factory method for creating the Selector
// described by a SelectorType
func CreateSelector(t SelectorType, batchSize int,
	seed int64) (Selector, error) {
	switch t {
	case Uniform:
		return NewUniformSelector(batchSize, seed), nil

	case Fifo:
		return NewFifoSelector(batchSize), nil
	}
	return nil, fmt.Errorf("createSelector: no such selector type: %v", t)
}

// Selector implements functionality for choosing the indices at which
// data should be sampled from an experience replay buffer
type Selector interface {
	// choose selects the indices at which data should be sampled from
	// the experience replay buffer
	choose(c orderedSampler) []int

	// BatchSize returns the number of elements that will be selected
	BatchSize() int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly
type uniformSelector struct {
	samples int
	rng     *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data
// uniformly randomly from an experience replay buffer
func NewUniformSelector(samples int, seed int64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{samples: samples, rng: rng}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (u *uniformSelector) BatchSize() int {
	return u.samples
}

// choose selects a number of indices at which to draw data from the
// buffer. Indices are drawn with replacement.
func (u *uniformSelector) choose(c orderedSampler) []int {
	from := c.sampleFrom()

	selected := make([]int, u.BatchSize())
	for i := range selected {
		selected[i] = from[u.rng.Intn(len(from))]
	}

	return selected
}

// fifoSelector is a Selector which selects data from an experience
// replay buffer oldest first
type fifoSelector struct {
	samples int
}

// NewFifoSelector returns a new Selector which draws the oldest data
// from an experience replay buffer
func NewFifoSelector(samples int) Selector {
	return &fifoSelector{samples: samples}
}

// BatchSize gets the number of samples in a batch drawn from the buffer
func (f *fifoSelector) BatchSize() int {
	return f.samples
}

// choose selects a number of indices at which to draw data from the
// buffer
func (f *fifoSelector) choose(c orderedSampler) []int {
	return c.insertOrder(f.BatchSize())
}
