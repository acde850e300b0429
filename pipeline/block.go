package pipeline

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/farriolsartur/experiment/report"
	"github.com/sirupsen/logrus"
)

// Block is one pipeline stage. Run is called once, after the factory has
// returned a fully configured instance.
type Block interface {
	Run() error
}

// Env carries everything the orchestrator hands to a stage factory.
type Env struct {
	Index  int
	Name   string
	Module string
	OutDir string
	Params Params

	Data   *DataContext
	Report *report.Items
	Log    *logrus.Entry
	Codec  Codec
}

// Base implements the shared part of the stage contract. Stage types embed
// it and build it with NewBase from their factory.
type Base struct {
	*Env
	// Rand is the stage's private random source, seeded from rng_seed when set.
	Rand *rand.Rand
}

// NewBase creates the output directory and seeds the random source.
func NewBase(env *Env) (Base, error) {
	if env.Params == nil {
		env.Params = Params{}
	}
	if env.Log == nil {
		env.Log = logrus.NewEntry(globalLogger).WithField("stage", env.Name)
	}
	if env.Codec == nil {
		env.Codec = GobCodec{}
	}
	if err := os.MkdirAll(env.OutDir, 0o755); err != nil {
		return Base{}, stageErrorf(ErrStageFailure, env.Name, PhaseConfigure, err, "creating output dir")
	}

	b := Base{Env: env}
	if v, ok := env.Params["rng_seed"]; ok {
		seed, err := seedFromParam(v)
		if err != nil {
			return Base{}, stageErrorf(ErrStageFailure, env.Name, PhaseConfigure, err, "invalid rng_seed")
		}
		b.Rand = rand.New(rand.NewPCG(seed, seed))
	} else {
		b.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	env.Log.Debugf("Configured %s with %d params", env.Name, len(env.Params))
	return b, nil
}

// Fail builds the error a stage returns for an unrecoverable condition.
func (b *Base) Fail(format string, args ...any) error {
	return &StageError{
		Kind:  ErrStageFailure,
		Stage: b.Name,
		Phase: PhaseRun,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// Recompute reports whether the check-run policy must skip the cache.
func (b *Base) Recompute() bool {
	return b.Params.Bool("recompute", false)
}
