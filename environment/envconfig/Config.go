// Package envconfig provides configuration structs for creating
// environments with default physical parameters and tasks by name.
// Environment configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/deeprl/deeprl/environment"
	"github.com/deeprl/deeprl/environment/classiccontrol/cartpole"
	"github.com/deeprl/deeprl/environment/classiccontrol/mountaincar"
	ts "github.com/deeprl/deeprl/timestep"
)

// EnvName names the environments that can be configured with this
// package
type EnvName string

// Environments available for configuration
const (
	MountainCar EnvName = "MountainCar"
	Cartpole    EnvName = "Cartpole"
)

// TaskName names the tasks that can be configured with this package.
// Not all tasks can be used with all environments:
//
//	Environment		Task
//	MountainCar		Goal
//	Cartpole		Balance
//					SwingUp
type TaskName string

// Tasks available for configuration
const (
	Goal    TaskName = "Goal"
	Balance TaskName = "Balance"
	SwingUp TaskName = "SwingUp"
)

// Config describes a specific environment with a specific task and a
// fixed step horizon and discount.
type Config struct {
	Environment   EnvName
	Task          TaskName
	EpisodeCutoff int
	Discount      float64
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff int,
	discount float64) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	switch c.Environment {
	case MountainCar:
		return CreateMountainCar(c.Task, c.EpisodeCutoff, seed, c.Discount)

	case Cartpole:
		return CreateCartpole(c.Task, c.EpisodeCutoff, seed, c.Discount)
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: no such environment %v",
		c.Environment)
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep, error) {
	var task env.Task
	switch taskName {
	case Balance:
		bounds := r1.Interval{Min: -0.05, Max: 0.05}
		s := env.NewUniformStarter([]r1.Interval{
			bounds,
			bounds,
			bounds,
			bounds,
		}, seed)
		task = cartpole.NewBalance(s, cutoff, cartpole.FailAngle)

	case SwingUp:
		// The pole starts near the downward position
		s := env.NewUniformStarter([]r1.Interval{
			{Min: -0.05, Max: 0.05},
			{Min: -0.05, Max: 0.05},
			{Min: 3.1, Max: 3.14},
			{Min: -0.05, Max: 0.05},
		}, seed)
		task = cartpole.NewSwingUp(s, cutoff, cartpole.FailAngle)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createCartpole: Cartpole "+
			"environment has no task %v", taskName)
	}

	e, firstStep := cartpole.New(task, discount)
	return e, firstStep, nil
}

// CreateMountainCar is a factory for creating the MountainCar
// environment with default physical parameters and default task
// parameters.
func CreateMountainCar(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep, error) {
	if taskName != Goal {
		return nil, ts.TimeStep{}, fmt.Errorf("createMountainCar: "+
			"MountainCar environment has no task %v", taskName)
	}

	position := r1.Interval{Min: -0.6, Max: -0.4}
	velocity := r1.Interval{Min: 0.0, Max: 0.0}
	s := env.NewUniformStarter([]r1.Interval{position, velocity}, seed)

	task := mountaincar.NewGoal(s, cutoff, mountaincar.GoalPosition)

	e, firstStep := mountaincar.New(task, discount)
	return e, firstStep, nil
}
