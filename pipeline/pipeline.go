package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/farriolsartur/experiment/push"
	"github.com/farriolsartur/experiment/report"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultOutDir is where stage directories go when no out dir is given.
var DefaultOutDir = filepath.Join("run", "batch")

// Entry is one resolved stage of the pipeline.
type Entry struct {
	Index   int
	Name    string
	Module  string
	OutDir  string
	Params  Params
	Factory Factory
}

// Orchestrator builds the stage list from config and runs it in order.
type Orchestrator struct {
	cfg      *Config
	registry *Registry
	logger   *logrus.Logger
	runID    uuid.UUID

	outDir  string
	runDir  string
	project string
	codec   Codec
	now     func() time.Time

	renderer  report.Renderer
	publisher push.Publisher

	data    *DataContext
	items   *report.Items
	spec    []Entry
	blocks  []Block
	extErrs []error
}

type Option func(*Orchestrator)

func WithLogger(l *logrus.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOutDir sets the base directory for per-stage output directories.
func WithOutDir(dir string) Option {
	return func(o *Orchestrator) { o.outDir = dir }
}

// WithRunDir sets the directory pushed and used for reports. With the
// default out dir it defaults to "run"; with any other out dir it defaults
// to the out dir itself, never to its parent.
func WithRunDir(dir string) Option {
	return func(o *Orchestrator) { o.runDir = dir }
}

func WithProject(name string) Option {
	return func(o *Orchestrator) { o.project = name }
}

func WithCodec(c Codec) Option {
	return func(o *Orchestrator) { o.codec = c }
}

func WithRenderer(r report.Renderer) Option {
	return func(o *Orchestrator) { o.renderer = r }
}

func WithPublisher(p push.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New resolves every configured stage against reg. It fails with
// ErrResolution when a stage's module or name is unknown.
func New(cfg *Config, reg *Registry, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	o := &Orchestrator{
		cfg:      cfg,
		registry: reg,
		logger:   globalLogger,
		runID:    uuid.New(),
		outDir:   DefaultOutDir,
		project:  "experiment",
		codec:    GobCodec{},
		now:      time.Now,
		data:     NewDataContext(),
		items:    report.NewItems(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runDir == "" {
		o.runDir = o.outDir
		if filepath.Clean(o.outDir) == filepath.Clean(DefaultOutDir) {
			o.runDir = filepath.Dir(DefaultOutDir)
		}
	}

	o.log().Info("Initializing experiment")
	spec, err := o.build()
	if err != nil {
		return nil, o.logError(o.log(), PhaseBuild, err)
	}
	o.spec = spec
	o.log().Debugf("Built pipeline with %d stages", len(spec))
	return o, nil
}

func (o *Orchestrator) build() ([]Entry, error) {
	exp := o.cfg.Experiment
	spec := make([]Entry, 0, len(o.cfg.Stages))
	for i, sc := range o.cfg.Stages {
		f, err := o.registry.Resolve(sc.Module, sc.Name)
		if err != nil {
			return nil, err
		}
		params := sc.Params.clone()
		if !params.Has("recompute") {
			params["recompute"] = exp.Recompute
		}
		if exp.BlockRNGSeed && !params.Has("rng_seed") {
			params["rng_seed"] = DeriveSeed(sc.Name, sc.Module, exp.RNGSeed)
		}
		spec = append(spec, Entry{
			Index:   i,
			Name:    sc.Name,
			Module:  sc.Module,
			OutDir:  filepath.Join(o.outDir, fmt.Sprintf("%d-%s", i, sc.Name)),
			Params:  params,
			Factory: f,
		})
	}
	return spec, nil
}

func (o *Orchestrator) log() *logrus.Entry {
	return o.logger.WithField("run_id", o.runID.String())
}

// logError is the single place errors are logged before being handed back.
func (o *Orchestrator) logError(entry *logrus.Entry, phase string, err error) error {
	var se *StageError
	if errors.As(err, &se) && se.Phase != "" {
		phase = se.Phase
	}
	entry.WithField("phase", phase).WithError(err).Error("Pipeline error")
	return err
}

// Run executes every stage in declaration order and stops at the first
// failure. Files written by earlier stages stay on disk. Report and push
// run afterwards when enabled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log().Info("Running experiment")
	o.blocks = nil
	o.extErrs = nil
	o.items.Reset()

	for _, e := range o.spec {
		entry := o.log().WithFields(logrus.Fields{
			"stage":  e.Name,
			"index":  e.Index,
			"module": e.Module,
		})
		if err := o.runStage(e, entry); err != nil {
			return o.logError(entry, PhaseRun, err)
		}
	}

	if p := o.cfg.Experiment.Report; p != nil {
		if err := o.report(*p); err != nil {
			if err = o.extension(PhaseReport, p.Required, err); err != nil {
				return err
			}
		}
	}
	if p := o.cfg.Experiment.Push; p != nil {
		if err := o.push(ctx, *p); err != nil {
			if err = o.extension(PhasePush, p.Required, err); err != nil {
				return err
			}
		}
	}
	o.log().Info("Experiment complete")
	return nil
}

func (o *Orchestrator) runStage(e Entry, entry *logrus.Entry) error {
	entry.Infof("Initializing %s", e.Name)
	env := &Env{
		Index:  e.Index,
		Name:   e.Name,
		Module: e.Module,
		OutDir: e.OutDir,
		Params: e.Params.clone(),
		Data:   o.data,
		Report: o.items,
		Log:    entry,
		Codec:  o.codec,
	}
	blk, err := e.Factory(env)
	if err != nil {
		return wrapStage(e.Name, PhaseConfigure, err)
	}
	o.blocks = append(o.blocks, blk)

	entry.Infof("Running %s", e.Name)
	start := time.Now()
	if err := blk.Run(); err != nil {
		return wrapStage(e.Name, PhaseRun, err)
	}
	entry.Debugf("%s complete in %.2f sec", e.Name, time.Since(start).Seconds())
	return nil
}

// wrapStage attributes a plain error to the stage; StageErrors pass through.
func wrapStage(name, phase string, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return fmt.Errorf("stage %s (%s): %w", name, phase, err)
}

func (o *Orchestrator) extension(phase string, required bool, err error) error {
	o.logError(o.log(), phase, err)
	if required {
		return err
	}
	o.extErrs = append(o.extErrs, err)
	return nil
}

func (o *Orchestrator) report(p report.Params) error {
	o.log().Info("Creating report")
	if p.Title == "" {
		p.Title = o.project
	}
	r := o.renderer
	if r == nil {
		nb := report.NewNotebook(filepath.Join(o.runDir, "report"))
		nb.Now = o.now
		r = nb
	}
	out, err := r.Render(o.items.All(), p)
	if err != nil {
		return &StageError{Kind: ErrReport, Phase: PhaseReport, Err: err}
	}
	o.log().Infof("Report written to %s", out)
	return nil
}

func (o *Orchestrator) push(ctx context.Context, p push.Params) error {
	o.log().Info("Pushing experiment")
	pub := o.publisher
	if pub == nil {
		s3, err := push.NewS3(ctx, p.Region, o.logger)
		if err != nil {
			return &StageError{Kind: ErrPush, Phase: PhasePush, Err: err}
		}
		pub = s3
	}
	prefix := path.Join(p.Prefix, o.project, "run-"+o.now().Format("20060102-150405"))
	if err := pub.UploadDir(ctx, o.runDir, p.Bucket, prefix, p.IgnoreExt); err != nil {
		return &StageError{Kind: ErrPush, Phase: PhasePush, Err: err}
	}
	return nil
}

// Spec returns the resolved stages in execution order.
func (o *Orchestrator) Spec() []Entry {
	out := make([]Entry, len(o.spec))
	copy(out, o.spec)
	return out
}

// Blocks returns the stage instances constructed by the last Run.
func (o *Orchestrator) Blocks() []Block {
	return o.blocks
}

func (o *Orchestrator) Data() *DataContext {
	return o.data
}

func (o *Orchestrator) ReportItems() *report.Items {
	return o.items
}

// ExtensionErrors returns report/push failures that did not fail the run.
func (o *Orchestrator) ExtensionErrors() []error {
	return o.extErrs
}

func (o *Orchestrator) RunID() uuid.UUID {
	return o.runID
}
