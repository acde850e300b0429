package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrConfig            = errors.New("invalid config")
	ErrResolution        = errors.New("stage resolution failed")
	ErrStageFailure      = errors.New("stage failed")
	ErrContractViolation = errors.New("output contract violated")
	ErrCacheRead         = errors.New("cache read failed")
	ErrCacheWrite        = errors.New("cache write failed")
	ErrReport            = errors.New("report failed")
	ErrPush              = errors.New("push failed")
)

// Phases reported on StageError and in log fields.
const (
	PhaseBuild     = "build"
	PhaseConfigure = "configure"
	PhaseRun       = "run"
	PhaseLoad      = "load"
	PhasePersist   = "persist"
	PhaseReport    = "report"
	PhasePush      = "push"
)

// StageError attributes a failure to a stage and a phase.
type StageError struct {
	Kind  error
	Stage string
	Phase string
	Msg   string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: stage %s", msg, e.Stage)
	}
	if e.Phase != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Phase)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageErrorf(kind error, stage, phase string, cause error, format string, args ...any) error {
	return &StageError{
		Kind:  kind,
		Stage: stage,
		Phase: phase,
		Msg:   fmt.Sprintf(format, args...),
		Err:   cause,
	}
}

func configErrorf(format string, args ...any) error {
	return &StageError{Kind: ErrConfig, Phase: PhaseBuild, Msg: fmt.Sprintf(format, args...)}
}
