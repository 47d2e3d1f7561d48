package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *buildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StageLoad      StageName = "load_content"
	StageResolve   StageName = "resolve_assets"
	StageTransform StageName = "transform_content"
	StageCompose   StageName = "compose_pages"
	StageRender    StageName = "render_pages"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the failing stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

func (r StageResult) label() metrics.ResultLabel {
	switch r {
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultSuccess
	}
}

// StageDef pairs a stage with the machine state it runs in.
type StageDef struct {
	Name  StageName
	State State
	Fn    Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 5)} }

// Add appends a stage.
func (p *Pipeline) Add(name StageName, state State, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, State: state, Fn: fn})
	return p
}

// Build returns a copy of the stage definitions.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}

// RunStages advances the machine into each stage's state and runs the stage,
// recording timing and stopping on the first error. On error the machine is left
// in StateFailed.
func RunStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := &StageError{Kind: StageErrorCanceled, Stage: st.Name, Err: err}
			bs.fail(st.Name, StageResultCanceled, 0, se)
			return se
		}

		if err := bs.machine.Advance(st.State); err != nil {
			se := &StageError{Kind: StageErrorFatal, Stage: st.Name, Err: err}
			bs.fail(st.Name, StageResultFatal, 0, se)
			return se
		}
		bs.observer.OnStageStart(st.Name)

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[string(st.Name)] = dur

		if err != nil {
			se := classifyStageError(st.Name, err)
			result := StageResultFatal
			if se.Kind == StageErrorCanceled {
				result = StageResultCanceled
			}
			bs.fail(st.Name, result, dur, se)
			return se
		}
		bs.report.recordStageResult(st.Name, StageResultSuccess, bs.recorder)
		bs.observer.OnStageComplete(st.Name, dur, StageResultSuccess)
		slog.Debug("Stage complete", logfields.BuildID(bs.id), logfields.Stage(string(st.Name)), logfields.DurationMS(ms(dur)))
	}
	return nil
}

func classifyStageError(stage StageName, err error) *StageError {
	kind := StageErrorFatal
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		ferrors.GetCategory(err) == ferrors.CategoryCanceled {
		kind = StageErrorCanceled
	}
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

// fail records a stage failure and moves the machine to StateFailed.
func (bs *buildState) fail(stage StageName, result StageResult, dur time.Duration, se *StageError) {
	bs.report.StageErrorKinds[stage] = se.Kind
	bs.report.AddIssue(issueCodeFor(se), stage, se.Error())
	bs.report.Errors = append(bs.report.Errors, se)
	bs.report.recordStageResult(stage, result, bs.recorder)
	bs.observer.OnStageComplete(stage, dur, result)
	_ = bs.machine.Fail()
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
