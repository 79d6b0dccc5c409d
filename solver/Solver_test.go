package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	original, err := NewDefaultAdam(0.001, 32)
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Solver
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Equal(t, Adam, decoded.Type)
	require.Equal(t, original.Config, decoded.Config)
	require.NotNil(t, decoded.Solver)
}

func TestInvalidTypeForConfig(t *testing.T) {
	_, err := newSolver(Vanilla, AdamConfig{StepSize: 0.001, Batch: 1})
	require.Error(t, err)
}

func TestNewVanilla(t *testing.T) {
	s, err := NewVanilla(0.1, 16, 0.0)
	require.NoError(t, err)
	require.Equal(t, Vanilla, s.Type)
	require.NotNil(t, s.Solver)
}
