// Package expreplay implements experience replay buffers
package expreplay

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/deeprl/deeprl/timestep"
	"github.com/deeprl/deeprl/utils/intutils"
)

// rawData returns the backing data of a vector
func rawData(v mat.Vector) []float64 {
	if dense, ok := v.(*mat.VecDense); ok {
		return dense.RawVector().Data
	}

	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}

// orderedSampler is an experience replay buffer that can return the
// underlying indices to sample from, ordered by insertion time
type orderedSampler interface {
	ExperienceReplayer

	// sampleFrom returns the indices which currently hold data
	sampleFrom() []int

	// insertOrder returns the first n indices that data was added to,
	// oldest first
	insertOrder(n int) []int
}

// Config describes a specific configuration of an ExperienceReplayer
type Config struct {
	SampleMethod      SelectorType
	SampleSize        int
	MinReplayCapacity int
	MaxReplayCapacity int
	IncludeNextAction bool
}

// Create creates and returns the ExperienceReplayer that the Config
// describes
func (c Config) Create(featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {
	sampler, err := CreateSelector(c.SampleMethod, c.SampleSize, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	return New(sampler, c.MinReplayCapacity, c.MaxReplayCapacity,
		featureSize, actionSize, c.IncludeNextAction)
}

// ExperienceReplayer is an experience replay buffer. Once the buffer
// is full, adding a new transition evicts the oldest stored
// transition. ExperienceReplayers are not safe for concurrent use.
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer, returning
	// the state, action, reward, discount, next state, and next
	// action batches as flattened []float64
	Sample() ([]float64, []float64, []float64, []float64, []float64,
		[]float64, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer as a ring buffer.
// Data is written at currentInUsePos, which wraps around once the
// buffer fills so that the oldest transition is always the one
// overwritten.
type cache struct {
	// includeNextAction denotes whether the next action in the SARSA
	// tuple should be stored and returned
	includeNextAction bool

	stateCache      []float64
	actionCache     []float64
	rewardCache     []float64
	discountCache   []float64
	nextStateCache  []float64
	nextActionCache []float64

	currentInUsePos int
	isFull          bool

	sampler Selector

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer. The sampler
// parameter is a Selector which determines how data is sampled from
// the replay buffer; data is always removed oldest-first. The
// featureSize and actionSize parameters define the size of the feature
// and action vectors. The minCapacity parameter determines the minimum
// number of samples that must be in the buffer before sampling is
// allowed, and maxCapacity the maximum number of samples stored at any
// given time. The includeNextAction parameter determines whether the
// next action in the SARSA tuple should also be stored.
//
// Pixel observations should be flattened before adding to the buffer.
func New(sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int, includeNextAction bool) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < minCapacity {
		return nil, fmt.Errorf("new: cannot have min capacity(%v) > max "+
			"capacity(%v)", minCapacity, maxCapacity)
	}
	if sampler.BatchSize() > maxCapacity {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity(%v)", sampler.BatchSize(), maxCapacity)
	}

	var nextActionCache []float64
	if includeNextAction {
		nextActionCache = make([]float64, maxCapacity*actionSize)
	}

	return &cache{
		includeNextAction: includeNextAction,

		stateCache:      make([]float64, maxCapacity*featureSize),
		actionCache:     make([]float64, maxCapacity*actionSize),
		rewardCache:     make([]float64, maxCapacity),
		discountCache:   make([]float64, maxCapacity),
		nextStateCache:  make([]float64, maxCapacity*featureSize),
		nextActionCache: nextActionCache,

		currentInUsePos: 0,
		isFull:          false,

		sampler: sampler,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Samples: %v/%v \nStates: %v \nActions: %v \nRewards: %v" +
		" \nDiscounts: %v \nNext States: %v \nNext Actions: %v"
	return fmt.Sprintf(baseStr, c.Capacity(), c.MaxCapacity(),
		c.stateCache, c.actionCache, c.rewardCache, c.discountCache,
		c.nextStateCache, c.nextActionCache)
}

// BatchSize returns the number of samples sampled using Sample()
func (c *cache) BatchSize() int {
	return c.sampler.BatchSize()
}

// insertOrder returns a slice of at most n indices which describes
// the order that data was inserted into the buffer, oldest first
func (c *cache) insertOrder(n int) []int {
	if !c.isFull {
		order := make([]int, intutils.Min(n, c.currentInUsePos))
		for i := range order {
			order[i] = i
		}
		return order
	}

	order := make([]int, intutils.Min(n, c.maxCapacity))
	for i := range order {
		// Once full, the write position holds the oldest sample
		order[i] = (c.currentInUsePos + i) % c.maxCapacity
	}
	return order
}

// sampleFrom returns the indices which currently hold data
func (c *cache) sampleFrom() []int {
	indices := make([]int, c.Capacity())
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Sample samples and returns a batch of transitions from the replay
// buffer. The returned values are the state, action, reward, discount,
// next state, and next action batches.
func (c *cache) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, []float64, error) {
	if c.Capacity() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
		return nil, nil, nil, nil, nil, nil, err
	}
	if c.Capacity() < c.MinCapacity() {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, nil, err
	}

	indices := c.sampler.choose(c)

	stateBatch := make([]float64, len(indices)*c.featureSize)
	nextStateBatch := make([]float64, len(indices)*c.featureSize)
	for i, index := range indices {
		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize],
		)
		copy(nextStateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize],
		)
	}

	actionBatch := make([]float64, len(indices)*c.actionSize)
	var nextActionBatch []float64
	if c.includeNextAction {
		nextActionBatch = make([]float64, len(indices)*c.actionSize)
	}
	for i, index := range indices {
		batchStartInd := i * c.actionSize
		expStartInd := index * c.actionSize
		copy(actionBatch[batchStartInd:batchStartInd+c.actionSize],
			c.actionCache[expStartInd:expStartInd+c.actionSize],
		)
		if c.includeNextAction {
			copy(nextActionBatch[batchStartInd:batchStartInd+c.actionSize],
				c.nextActionCache[expStartInd:expStartInd+c.actionSize],
			)
		}
	}

	rewardBatch := make([]float64, len(indices))
	discountBatch := make([]float64, len(indices))
	for i, index := range indices {
		rewardBatch[i] = c.rewardCache[index]
		discountBatch[i] = c.discountCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, discountBatch,
		nextStateBatch, nextActionBatch, nil
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Capacity() int {
	if c.isFull {
		return c.maxCapacity
	}
	return c.currentInUsePos
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *cache) MinCapacity() int {
	return c.minCapacity
}

// Add adds a transition to the cache, evicting the oldest stored
// transition if the cache is full
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", c.featureSize, t.State.Len())
	}
	if t.Action.Len() != c.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", c.actionSize, t.Action.Len())
	}
	if c.includeNextAction && t.NextAction.Len() != c.actionSize {
		return fmt.Errorf("add: invalid next action size \n\twant(%v)"+
			"\n\thave(%v)", c.actionSize, t.NextAction.Len())
	}

	index := c.currentInUsePos

	stateInd := index * c.featureSize
	copy(c.stateCache[stateInd:stateInd+c.featureSize], rawData(t.State))
	copy(c.nextStateCache[stateInd:stateInd+c.featureSize],
		rawData(t.NextState))

	actionInd := index * c.actionSize
	copy(c.actionCache[actionInd:actionInd+c.actionSize], rawData(t.Action))
	if c.includeNextAction {
		copy(c.nextActionCache[actionInd:actionInd+c.actionSize],
			rawData(t.NextAction))
	}

	c.rewardCache[index] = t.Reward
	c.discountCache[index] = t.Discount

	if !c.isFull && index+1 == c.maxCapacity {
		c.isFull = true
	}
	c.currentInUsePos = (c.currentInUsePos + 1) % c.maxCapacity

	return nil
}

// GobEncode implements gob.GobEncoder, serializing the stored
// transitions so that a buffer can be saved with an agent checkpoint
func (c *cache) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	fields := []interface{}{
		c.includeNextAction,
		c.stateCache,
		c.actionCache,
		c.rewardCache,
		c.discountCache,
		c.nextStateCache,
		c.nextActionCache,
		c.currentInUsePos,
		c.isFull,
		c.minCapacity,
		c.maxCapacity,
		c.featureSize,
		c.actionSize,
	}
	for _, field := range fields {
		if err := enc.Encode(field); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode "+
				"buffer: %v", err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The cache must already have
// been created with the same configuration as the encoded cache; its
// sampler is left untouched.
func (c *cache) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	decoded := &cache{}
	fields := []interface{}{
		&decoded.includeNextAction,
		&decoded.stateCache,
		&decoded.actionCache,
		&decoded.rewardCache,
		&decoded.discountCache,
		&decoded.nextStateCache,
		&decoded.nextActionCache,
		&decoded.currentInUsePos,
		&decoded.isFull,
		&decoded.minCapacity,
		&decoded.maxCapacity,
		&decoded.featureSize,
		&decoded.actionSize,
	}
	for _, field := range fields {
		if err := dec.Decode(field); err != nil {
			return fmt.Errorf("gobdecode: could not decode buffer: %v", err)
		}
	}

	if c.sampler != nil {
		if decoded.maxCapacity != c.maxCapacity ||
			decoded.featureSize != c.featureSize ||
			decoded.actionSize != c.actionSize {
			return fmt.Errorf("gobdecode: buffer layout does not match")
		}
		decoded.sampler = c.sampler
	}
	*c = *decoded

	return nil
}
