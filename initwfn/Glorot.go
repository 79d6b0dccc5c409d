package initwfn

import G "gorgonia.org/gorgonia"

// GlorotUConfig describes a Glorot uniform weight initializer
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// GlorotNConfig describes a Glorot normal weight initializer
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	config := GlorotNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotNConfig) Create() G.InitWFn {
	return G.GlorotN(g.Gain)
}
