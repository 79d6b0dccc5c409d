package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestJSONRoundTrip(t *testing.T) {
	original, err := NewGlorotU(2.0)
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded InitWFn
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Equal(t, GlorotU, decoded.Type)
	require.Equal(t, original.Config, decoded.Config)
	require.NotNil(t, decoded.InitWFn())
}

func TestConstantInitFillsValues(t *testing.T) {
	wrapped, err := NewConstant(0.5)
	require.NoError(t, err)

	values := wrapped.InitWFn()(tensor.Float64, 2, 3).([]float64)
	require.Len(t, values, 6)
	for _, v := range values {
		require.Equal(t, 0.5, v)
	}
}

func TestZeroesInit(t *testing.T) {
	wrapped, err := NewZeroes()
	require.NoError(t, err)

	values := wrapped.InitWFn()(tensor.Float64, 4).([]float64)
	for _, v := range values {
		require.Equal(t, 0.0, v)
	}
}
