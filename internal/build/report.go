package build

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

// Report file names written by Persist.
const (
	ReportJSONFile = "build-report.json"
	ReportTextFile = "build-report.txt"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// ReportIssueCode enumerates machine-parseable issue identifiers.
type ReportIssueCode string

const (
	IssueContentLoad       ReportIssueCode = "CONTENT_LOAD"
	IssueDuplicateRecord   ReportIssueCode = "DUPLICATE_RECORD"
	IssueAssetNotFound     ReportIssueCode = "ASSET_NOT_FOUND"
	IssueAssetProcess      ReportIssueCode = "ASSET_PROCESS"
	IssueMarkupParse       ReportIssueCode = "MARKUP_PARSE"
	IssueMissingDependency ReportIssueCode = "MISSING_DEPENDENCY"
	IssueRender            ReportIssueCode = "RENDER_FAILURE"
	IssuePublish           ReportIssueCode = "PUBLISH_FAILURE"
	IssueCanceled          ReportIssueCode = "BUILD_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// ReportIssue is a structured taxonomy entry describing a problem encountered.
type ReportIssue struct {
	Code    ReportIssueCode `json:"code"`
	Stage   StageName       `json:"stage"`
	Message string          `json:"message"`
}

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// BuildReport captures high-level metrics about a build.
type BuildReport struct {
	SchemaVersion   int
	BuildID         string
	Start           time.Time
	End             time.Time
	Errors          []error
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Records         map[string]int
	Assets          int
	Pages           int
	Outcome         BuildOutcome
	Issues          []ReportIssue
	// FinalState is the machine state when the build returned.
	FinalState State
	ConfigHash string
	// ManifestHash is the input hash of the build manifest (empty for failed builds).
	ManifestHash       string
	SiteBuilderVersion string
}

func newBuildReport(id string, start time.Time) *BuildReport {
	return &BuildReport{
		SchemaVersion:      1,
		BuildID:            id,
		Start:              start,
		StageDurations:     make(map[string]time.Duration),
		StageErrorKinds:    make(map[StageName]StageErrorKind),
		StageCounts:        make(map[StageName]StageCount),
		Records:            make(map[string]int),
		SiteBuilderVersion: version.Version,
	}
}

// AddIssue appends a structured issue.
func (r *BuildReport) AddIssue(code ReportIssueCode, stage StageName, msg string) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Message: msg})
}

func (r *BuildReport) recordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	sc := r.StageCounts[stage]
	switch res {
	case StageResultSuccess:
		sc.Success++
	case StageResultFatal:
		sc.Fatal++
	case StageResultCanceled:
		sc.Canceled++
	}
	r.StageCounts[stage] = sc
	if recorder != nil {
		recorder.IncStageResult(string(stage), res.label())
	}
}

// finish sets the end time and derives the outcome from recorded errors.
func (r *BuildReport) finish(end time.Time) {
	r.End = end
	switch {
	case len(r.Errors) == 0:
		r.Outcome = OutcomeSuccess
	case r.canceled():
		r.Outcome = OutcomeCanceled
	default:
		r.Outcome = OutcomeFailed
	}
}

func (r *BuildReport) canceled() bool {
	for _, e := range r.Errors {
		var se *StageError
		if errors.As(e, &se) && se.Kind == StageErrorCanceled {
			return true
		}
	}
	return false
}

// Duration is the wall time of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	records := 0
	for _, n := range r.Records {
		records += n
	}
	return fmt.Sprintf("build=%s records=%d assets=%d pages=%d duration=%s errors=%d state=%s outcome=%s",
		r.BuildID, records, r.Assets, r.Pages, r.Duration().Truncate(time.Millisecond), len(r.Errors), r.FinalState, r.Outcome)
}

type serializableReport struct {
	SchemaVersion      int                   `json:"schema_version"`
	BuildID            string                `json:"build_id"`
	Start              time.Time             `json:"start"`
	End                time.Time             `json:"end"`
	Outcome            BuildOutcome          `json:"outcome"`
	FinalState         State                 `json:"final_state"`
	Errors             []string              `json:"errors,omitempty"`
	StageDurationsMS   map[string]int64      `json:"stage_durations_ms"`
	StageErrorKinds    map[string]string     `json:"stage_error_kinds,omitempty"`
	StageCounts        map[string]StageCount `json:"stage_counts"`
	Records            map[string]int        `json:"records"`
	Assets             int                   `json:"assets"`
	Pages              int                   `json:"pages"`
	Issues             []ReportIssue         `json:"issues,omitempty"`
	ConfigHash         string                `json:"config_hash,omitempty"`
	ManifestHash       string                `json:"manifest_hash,omitempty"`
	SiteBuilderVersion string                `json:"sitebuilder_version"`
}

func (r *BuildReport) serializable() serializableReport {
	s := serializableReport{
		SchemaVersion:      r.SchemaVersion,
		BuildID:            r.BuildID,
		Start:              r.Start,
		End:                r.End,
		Outcome:            r.Outcome,
		FinalState:         r.FinalState,
		StageDurationsMS:   make(map[string]int64, len(r.StageDurations)),
		StageErrorKinds:    make(map[string]string, len(r.StageErrorKinds)),
		StageCounts:        make(map[string]StageCount, len(r.StageCounts)),
		Records:            r.Records,
		Assets:             r.Assets,
		Pages:              r.Pages,
		Issues:             r.Issues,
		ConfigHash:         r.ConfigHash,
		ManifestHash:       r.ManifestHash,
		SiteBuilderVersion: r.SiteBuilderVersion,
	}
	for _, e := range r.Errors {
		s.Errors = append(s.Errors, e.Error())
	}
	for k, v := range r.StageDurations {
		s.StageDurationsMS[k] = v.Milliseconds()
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[string(k)] = string(v)
	}
	for k, v := range r.StageCounts {
		s.StageCounts[string(k)] = v
	}
	return s
}

// Persist writes build-report.json and build-report.txt into dir, each through a
// temporary file and rename.
func (r *BuildReport) Persist(dir string) error {
	fsErr := func(msg string, err error) error {
		return ferrors.FileSystemError(msg).WithCause(err).WithContext("dir", dir).Build()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fsErr("ensure report dir", err)
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, ReportJSONFile), append(jb, '\n')); err != nil {
		return fsErr("write report json", err)
	}
	if err := writeAtomic(filepath.Join(dir, ReportTextFile), []byte(r.Summary()+"\n")); err != nil {
		return fsErr("write report summary", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func issueCodeFor(se *StageError) ReportIssueCode {
	if se.Kind == StageErrorCanceled {
		return IssueCanceled
	}
	err := se.Err
	switch {
	case errors.Is(err, content.ErrDuplicateRecord):
		return IssueDuplicateRecord
	case errors.Is(err, content.ErrContentLoad):
		return IssueContentLoad
	case errors.Is(err, assets.ErrAssetNotFound):
		return IssueAssetNotFound
	case errors.Is(err, assets.ErrAssetProcess):
		return IssueAssetProcess
	case errors.Is(err, markup.ErrMarkupParse):
		return IssueMarkupParse
	case errors.Is(err, compose.ErrMissingDependency):
		return IssueMissingDependency
	case errors.Is(err, render.ErrRender):
		return IssueRender
	case errors.Is(err, ErrPublish):
		return IssuePublish
	}
	return IssueGenericStageError
}
