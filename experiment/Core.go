// Package experiment implements functionality for running an
// experiment as alternating learning and evaluation phases
package experiment

import (
	"fmt"

	"github.com/deeprl/deeprl/agent"
	env "github.com/deeprl/deeprl/environment"
	"github.com/deeprl/deeprl/experiment/tracker"
	ts "github.com/deeprl/deeprl/timestep"
)

// Core drives the interaction between an agent and an environment.
// Learning proceeds in phases: Learn runs the agent in training mode
// and fits it on schedule, while Evaluate runs the agent in evaluation
// mode without changing any of its state. Episodes that reach their
// last timestep during a phase are restarted transparently, so that a
// phase always runs for exactly the requested number of environmental
// steps.
type Core struct {
	env.Environment
	agent.Agent
	trackers []tracker.Tracker
}

// NewCore returns a new Core running a on e. The trackers parameter
// determines what per-timestep data is recorded during learning.
func NewCore(e env.Environment, a agent.Agent,
	trackers ...tracker.Tracker) *Core {
	return &Core{e, a, trackers}
}

// Register registers a tracker.Tracker with the Core so that data
// generated during learning can be tracked and saved
func (c *Core) Register(t tracker.Tracker) {
	c.trackers = append(c.trackers, t)
}

// WarmUp runs the agent for nSteps environmental steps in training
// mode, recording transitions without fitting. It is used to seed the
// agent's replay buffer before learning begins.
func (c *Core) WarmUp(nSteps int) error {
	return c.run(nSteps, 0)
}

// Learn runs the agent for nSteps environmental steps in training
// mode, fitting the agent once every nStepsPerFit steps.
func (c *Core) Learn(nSteps, nStepsPerFit int) error {
	if nStepsPerFit < 1 {
		return fmt.Errorf("learn: steps per fit must be at least 1 "+
			"\n\thave(%d)", nStepsPerFit)
	}
	return c.run(nSteps, nStepsPerFit)
}

// run interacts with the environment for nSteps steps. A positive
// nStepsPerFit fits the agent on schedule.
func (c *Core) run(nSteps, nStepsPerFit int) error {
	step := c.Environment.Reset()
	if err := c.Agent.ObserveFirst(step); err != nil {
		return fmt.Errorf("run: could not observe first timestep: %v", err)
	}
	c.track(step)

	for i := 1; i <= nSteps; i++ {
		action := c.Agent.SelectAction(step)
		nextStep, _ := c.Environment.Step(action)
		c.track(nextStep)

		if err := c.Agent.Observe(action, nextStep); err != nil {
			return fmt.Errorf("run: could not observe timestep: %v", err)
		}
		if nStepsPerFit > 0 && i%nStepsPerFit == 0 {
			if err := c.Agent.Step(); err != nil {
				return fmt.Errorf("run: could not fit agent: %v", err)
			}
		}

		if nextStep.Last() {
			c.Agent.EndEpisode()
			step = c.Environment.Reset()
			if err := c.Agent.ObserveFirst(step); err != nil {
				return fmt.Errorf("run: could not observe first "+
					"timestep: %v", err)
			}
			c.track(step)
		} else {
			step = nextStep
		}
	}

	return nil
}

// Evaluate runs the agent for nSteps environmental steps in evaluation
// mode and returns the completed episodes. The agent's networks,
// replay buffer, and exploration schedule are left untouched, and the
// agent is returned to training mode before Evaluate returns.
func (c *Core) Evaluate(nSteps int) ([]Episode, error) {
	c.Agent.Eval()
	defer c.Agent.Train()

	var episodes []Episode
	var current Episode

	step := c.Environment.Reset()
	for i := 1; i <= nSteps; i++ {
		action := c.Agent.SelectAction(step)
		nextStep, _ := c.Environment.Step(action)
		current.Rewards = append(current.Rewards, nextStep.Reward)

		if nextStep.Last() {
			episodes = append(episodes, current)
			current = Episode{}
			step = c.Environment.Reset()
		} else {
			step = nextStep
		}
	}

	return episodes, nil
}

// track tracks the current timestep by caching its data in each
// tracker
func (c *Core) track(t ts.TimeStep) {
	for _, tracker := range c.trackers {
		tracker.Track(t)
	}
}

// Save saves all the data cached by the trackers to disk
func (c *Core) Save() error {
	for _, tracker := range c.trackers {
		if err := tracker.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}
