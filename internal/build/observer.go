package build

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// BuildObserver receives callbacks around stage execution and build lifecycle.
type BuildObserver interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnBuildComplete(report *BuildReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(_ StageName)                                    {}
func (NoopObserver) OnStageComplete(_ StageName, _ time.Duration, _ StageResult) {}
func (NoopObserver) OnBuildComplete(_ *BuildReport)                              {}

// RecorderObserver adapts metrics.Recorder into a BuildObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(_ StageName) {}
func (r RecorderObserver) OnStageComplete(stage StageName, d time.Duration, _ StageResult) {
	if r.Recorder != nil {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
}

func (r RecorderObserver) OnBuildComplete(report *BuildReport) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveBuildDuration(report.Duration())
	r.Recorder.IncBuildOutcome(string(report.Outcome))
	for typ, n := range report.Records {
		r.Recorder.SetRecordCount(typ, n)
	}
	if report.Pages > 0 {
		r.Recorder.IncPagesRendered(report.Pages)
	}
}

// LogObserver logs stage progress with slog.
type LogObserver struct{ Logger *slog.Logger }

func (o LogObserver) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o LogObserver) OnStageStart(stage StageName) {
	o.logger().Debug("Stage started", logfields.Stage(string(stage)))
}

func (o LogObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	level := slog.LevelInfo
	if result != StageResultSuccess {
		level = slog.LevelWarn
	}
	o.logger().Log(context.Background(), level, "Stage finished",
		logfields.Stage(string(stage)),
		logfields.Outcome(string(result)),
		logfields.DurationMS(ms(d)))
}

func (o LogObserver) OnBuildComplete(report *BuildReport) {
	o.logger().Info("Build finished",
		logfields.BuildID(report.BuildID),
		logfields.State(string(report.FinalState)),
		logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(ms(report.Duration())),
		slog.Int("pages", report.Pages))
}

// multiObserver fans callbacks out to several observers in order.
type multiObserver []BuildObserver

func (m multiObserver) OnStageStart(stage StageName) {
	for _, o := range m {
		o.OnStageStart(stage)
	}
}

func (m multiObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult) {
	for _, o := range m {
		o.OnStageComplete(stage, d, result)
	}
}

func (m multiObserver) OnBuildComplete(report *BuildReport) {
	for _, o := range m {
		o.OnBuildComplete(report)
	}
}
