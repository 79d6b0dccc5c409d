package initwfn

import G "gorgonia.org/gorgonia"

// HeUConfig describes a He uniform weight initializer
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	config := HeUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration
func (h HeUConfig) Type() Type {
	return HeU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (h HeUConfig) Create() G.InitWFn {
	return G.HeU(h.Gain)
}

// HeNConfig describes a He normal weight initializer
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	config := HeNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration
func (h HeNConfig) Type() Type {
	return HeN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (h HeNConfig) Create() G.InitWFn {
	return G.HeN(h.Gain)
}
