// Package tracker implements Trackers, which track and save data
// generated during an experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/deeprl/deeprl/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open data file: %v",
			err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}

	return data, nil
}
