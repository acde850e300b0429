package blocks

import (
	"github.com/farriolsartur/experiment/pipeline"
)

var noiseOutputs = pipeline.Outputs{"noise": "noise.gob"}

// Noise draws N gaussian samples from the stage random source. With a fixed
// rng_seed, or block_rng_seed on, the samples repeat across runs.
type Noise struct {
	pipeline.Base
	N      int     `yaml:"n"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

func NewNoise(env *pipeline.Env) (pipeline.Block, error) {
	base, err := pipeline.NewBase(env)
	if err != nil {
		return nil, err
	}
	n := &Noise{Base: base, N: 100, StdDev: 1}
	if err := env.Params.Decode(n); err != nil {
		return nil, err
	}
	if n.N < 0 {
		return nil, n.Fail("n must not be negative, got %d", n.N)
	}
	return n, nil
}

func (n *Noise) Run() error {
	return n.CheckRun(noiseOutputs, func() (map[string]any, error) {
		samples := make([]float64, n.N)
		for i := range samples {
			samples[i] = n.Mean + n.StdDev*n.Rand.NormFloat64()
		}
		return map[string]any{"noise": samples}, nil
	})
}
