package checkpointer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fileWriter records the mode it was saved with and touches the file
// it is asked to save to
type fileWriter struct {
	mode SaveMode
}

func (f *fileWriter) Save(path string, mode SaveMode) error {
	f.mode = mode
	return os.WriteFile(path, []byte("state"), 0o644)
}

func TestCheckpointWritesLabelledFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "agents")
	writer := &fileWriter{}

	milestone, err := NewMilestone(writer, dir, ParametersAndBuffer)
	require.NoError(t, err)

	require.NoError(t, milestone.Checkpoint("initial"))
	require.NoError(t, milestone.Checkpoint("epoch-10"))

	require.Equal(t, ParametersAndBuffer, writer.mode)
	require.FileExists(t, filepath.Join(dir, "agent-initial.bin"))
	require.FileExists(t, filepath.Join(dir, "agent-epoch-10.bin"))
}

func TestSaveModeString(t *testing.T) {
	require.Equal(t, "Parameters", Parameters.String())
	require.Equal(t, "ParametersAndBuffer", ParametersAndBuffer.String())
}
