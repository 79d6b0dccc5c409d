package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/deeprl/deeprl/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker extracts the reward
// and accumulates the return for each episode in the experiment.
//
// Note: an episode must finish for this Tracker to record its data.
// If the last episode in an experiment does not finish, that episode's
// return is not saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) Tracker {
	return &Return{
		lastTimeStep: -1,
		filename:     filename,
	}
}

// Track tracks the reward seen on a timestep. When a new episode
// starts, the return of the finished episode is recorded and
// accumulation restarts for the new episode.
//
// If a new episode begins before the previous one finished, the
// partial episode is discarded. Track panics if it is called on
// non-sequential timesteps within an episode.
func (r *Return) Track(step ts.TimeStep) {
	if step.First() {
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	}
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v", r.lastTimeStep,
			step.Number))
	}

	r.currentReturn += step.Reward
	if !step.Last() {
		r.lastTimeStep = step.Number
		return
	}

	// Episode has ended, record the return and begin tracking the
	// return of the next episode
	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0.0
	r.lastTimeStep = -1
}

// EpisodeReturns returns the returns of all completed episodes tracked
// so far
func (r *Return) EpisodeReturns() []float64 {
	return r.episodeReturns
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() error {
	file, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("save: could not create save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(r.episodeReturns); err != nil {
		return fmt.Errorf("save: could not encode return data: %v", err)
	}
	return nil
}
