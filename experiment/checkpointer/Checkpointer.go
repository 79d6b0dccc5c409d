// Package checkpointer implements saving agent state to disk at
// milestones of an experiment
package checkpointer

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveMode determines how much agent state a checkpoint holds
type SaveMode int

const (
	// Parameters saves the agent's network weights only
	Parameters SaveMode = iota

	// ParametersAndBuffer additionally saves the agent's replay buffer
	// and update counters, so that training can resume from the
	// checkpoint
	ParametersAndBuffer
)

// String implements the fmt.Stringer interface
func (s SaveMode) String() string {
	switch s {
	case Parameters:
		return "Parameters"
	case ParametersAndBuffer:
		return "ParametersAndBuffer"
	}
	return "Unknown"
}

// Serializable is an agent whose state can be saved to a file
type Serializable interface {
	Save(path string, mode SaveMode) error
}

// Checkpointer saves the state of a serializable object under
// human-readable labels, such as "initial" or "epoch-10"
type Checkpointer interface {
	Checkpoint(label string) error
}

// milestone implements a Checkpointer that saves an object to a
// labelled file in a directory
type milestone struct {
	dir    string
	object Serializable
	mode   SaveMode
}

// NewMilestone returns a Checkpointer that saves object into dir,
// creating dir if it does not exist. Each call to Checkpoint writes
// the file agent-<label>.bin in dir.
func NewMilestone(object Serializable, dir string,
	mode SaveMode) (Checkpointer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newMilestone: could not create "+
			"directory: %v", err)
	}

	return &milestone{
		dir:    dir,
		object: object,
		mode:   mode,
	}, nil
}

// Checkpoint saves the tracked object under the given label
func (m *milestone) Checkpoint(label string) error {
	path := filepath.Join(m.dir, fmt.Sprintf("agent-%v.bin", label))
	if err := m.object.Save(path, m.mode); err != nil {
		return fmt.Errorf("checkpoint: could not save to %v: %v", path, err)
	}
	return nil
}
