// Package blocks holds the demo stages of the experiment template.
package blocks

import (
	"math"

	"github.com/farriolsartur/experiment/pipeline"
)

// Module is the config module name the demo stages register under.
const Module = "blocks.demo"

// Register adds every demo stage to reg.
func Register(reg *pipeline.Registry) {
	reg.Register(Module, "Theta", NewTheta)
	reg.Register(Module, "Spiral", NewSpiral)
	reg.Register(Module, "Noise", NewNoise)
	reg.Register(Module, "Summary", NewSummary)
}

// Linspace returns n evenly spaced values over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// Theta publishes "theta": points evenly spaced over one turn.
type Theta struct {
	pipeline.Base
	ExampleParam string `yaml:"example_param"`
	N            int    `yaml:"n"`
}

func NewTheta(env *pipeline.Env) (pipeline.Block, error) {
	base, err := pipeline.NewBase(env)
	if err != nil {
		return nil, err
	}
	t := &Theta{Base: base, N: 50}
	if err := env.Params.Decode(t); err != nil {
		return nil, err
	}
	if t.N < 1 {
		return nil, t.Fail("n must be positive, got %d", t.N)
	}
	return t, nil
}

func (t *Theta) Run() error {
	t.Data.Set("theta", Linspace(0, 2*math.Pi, t.N))
	return nil
}

var spiralOutputs = pipeline.Outputs{"x": "x.gob", "y": "y.gob", "z": "z.gob"}

// Spiral derives x, y, z from theta and caches them.
type Spiral struct {
	pipeline.Base
	ExampleParamsList []string `yaml:"example_params_list"`

	// Computed counts how often the compute path ran on this instance.
	Computed int `yaml:"-"`
}

func NewSpiral(env *pipeline.Env) (pipeline.Block, error) {
	base, err := pipeline.NewBase(env)
	if err != nil {
		return nil, err
	}
	s := &Spiral{Base: base}
	if err := env.Params.Decode(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spiral) Run() error {
	return s.CheckRun(spiralOutputs, s.compute)
}

func (s *Spiral) compute() (map[string]any, error) {
	s.Computed++
	theta, err := pipeline.Lookup[[]float64](s.Data, "theta")
	if err != nil {
		return nil, s.Fail("reading theta: %v", err)
	}
	x := make([]float64, len(theta))
	y := make([]float64, len(theta))
	z := make([]float64, len(theta))
	for i, th := range theta {
		x[i] = math.Cos(th - math.Pi/2)
		y[i] = math.Sin(th - math.Pi/2)
		z[i] = th
	}
	return map[string]any{"x": x, "y": y, "z": z}, nil
}
