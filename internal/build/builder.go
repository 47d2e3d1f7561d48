package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/git"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// StagePublish names the promotion step that follows the render stage.
const StagePublish StageName = "publish"

// Options configures a Builder.
type Options struct {
	// BaseDir anchors relative paths from the configuration; usually the directory
	// of the configuration file.
	BaseDir  string
	Recorder metrics.Recorder
	Observer BuildObserver
	Now      func() time.Time
}

// Result describes a finished build.
type Result struct {
	BuildID   string
	State     State
	OutputDir string
	Report    *BuildReport
	Manifest  *manifest.BuildManifest
	Artifacts []render.Artifact
	History   []Transition
}

// Builder runs site builds for one configuration.
type Builder struct {
	cfg  *config.Config
	opts Options
}

// New creates a builder. cfg must already be validated.
func New(cfg *config.Config, opts Options) *Builder {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{cfg: cfg, opts: opts}
}

type resolvedPaths struct {
	content []string
	assets  string
	layouts string
	static  string
	output  string
}

func (b *Builder) paths() resolvedPaths {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) || b.opts.BaseDir == "" {
			return p
		}
		return filepath.Join(b.opts.BaseDir, p)
	}
	rp := resolvedPaths{
		assets:  abs(b.cfg.Paths.Assets),
		layouts: abs(b.cfg.Paths.Layouts),
		static:  abs(b.cfg.Paths.Static),
		output:  abs(b.cfg.Paths.Output),
	}
	for _, c := range b.cfg.Paths.Content {
		rp.content = append(rp.content, abs(c))
	}
	return rp
}

// buildState carries mutable state across stages of one build.
type buildState struct {
	id       string
	cfg      *config.Config
	paths    resolvedPaths
	staging  string
	now      time.Time
	machine  *Machine
	report   *BuildReport
	observer BuildObserver
	recorder metrics.Recorder

	schemas   *content.SchemaRegistry
	store     *content.Store
	resolver  *assets.Resolver
	icons     []assets.Resolved
	bodies    compose.Bodies
	pages     []*compose.PageContext
	artifacts []render.Artifact
}

// Build runs Loading, Resolving, Transforming, Composing and Rendering on a fresh
// state machine and publishes the output. The returned Result is never nil; on
// failure its State is StateFailed and the previous output is untouched.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := b.opts.Now()
	id := uuid.NewString()
	observers := multiObserver{LogObserver{}, RecorderObserver{Recorder: b.opts.Recorder}}
	if b.opts.Observer != nil {
		observers = append(observers, b.opts.Observer)
	}
	bs := &buildState{
		id:       id,
		cfg:      b.cfg,
		paths:    b.paths(),
		now:      start,
		machine:  NewMachine(),
		report:   newBuildReport(id, start),
		observer: observers,
		recorder: b.opts.Recorder,
		schemas:  content.NewSchemaRegistry(b.cfg.Schemas),
	}
	bs.report.ConfigHash = ConfigHash(b.cfg)
	res := &Result{BuildID: id, OutputDir: bs.paths.output, Report: bs.report}
	slog.Info("Build started", logfields.BuildID(id), logfields.Path(bs.paths.output))

	err := b.cfg.ValidatePaths(b.opts.BaseDir)
	var staging string
	if err == nil {
		staging, err = beginStaging(bs.paths.output, id)
	}
	if err == nil {
		bs.staging = staging
		err = RunStages(ctx, bs, b.pipeline().Build())
	} else {
		se := &StageError{Kind: StageErrorFatal, Stage: StageLoad, Err: err}
		bs.fail(StageLoad, StageResultFatal, 0, se)
		err = se
	}
	if err == nil {
		res.Manifest, err = b.publish(ctx, bs)
	}
	if err != nil {
		abortStaging(bs.staging)
	} else if aerr := bs.machine.Advance(StateDone); aerr != nil {
		err = aerr
	}

	if err == nil {
		bs.report.Pages = len(bs.pages)
	}
	bs.report.FinalState = bs.machine.Current()
	bs.report.finish(b.opts.Now())
	bs.observer.OnBuildComplete(bs.report)
	if dir := b.cfg.Build.ReportDir; dir != "" {
		if !filepath.IsAbs(dir) && b.opts.BaseDir != "" {
			dir = filepath.Join(b.opts.BaseDir, dir)
		}
		if perr := bs.report.Persist(dir); perr != nil {
			slog.Warn("Failed to persist build report", logfields.Path(dir), logfields.Error(perr))
		}
	}

	res.State = bs.report.FinalState
	res.History = bs.machine.History()
	if err == nil {
		res.Artifacts = bs.artifacts
	}
	return res, err
}

func (b *Builder) pipeline() *Pipeline {
	return NewPipeline().
		Add(StageLoad, StateLoading, stageLoad).
		Add(StageResolve, StateResolving, stageResolve).
		Add(StageTransform, StateTransforming, stageTransform).
		Add(StageCompose, StateComposing, stageCompose).
		Add(StageRender, StateRendering, stageRender)
}

// publish writes the build manifest into the staging directory and promotes it.
func (b *Builder) publish(ctx context.Context, bs *buildState) (*manifest.BuildManifest, error) {
	fail := func(err error) error {
		se := classifyStageError(StagePublish, err)
		bs.fail(StagePublish, StageResultFatal, 0, se)
		return se
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}

	m := b.buildManifest(bs)
	if err := manifest.WriteJSON(bs.staging, manifest.BuildManifestFile, m); err != nil {
		return nil, fail(&PublishError{Op: "write manifest", Dir: bs.staging, Err: err})
	}
	if err := promote(bs.staging, bs.paths.output, b.cfg.Build.KeepBackup); err != nil {
		return nil, fail(err)
	}
	bs.staging = ""
	if h, err := m.Hash(); err == nil {
		bs.report.ManifestHash = h
	}
	return m, nil
}

func (b *Builder) buildManifest(bs *buildState) *manifest.BuildManifest {
	m := &manifest.BuildManifest{
		ID:        bs.id,
		Timestamp: bs.now.UTC(),
		Inputs: manifest.Inputs{
			ConfigHash: bs.report.ConfigHash,
			Records:    bs.store.Fingerprints(),
			Assets:     make(map[string]string),
		},
		Outputs: manifest.Outputs{
			Pages:          len(bs.pages),
			ArtifactHashes: make(map[string]string, len(bs.artifacts)),
		},
		Status:   string(OutcomeSuccess),
		Duration: b.opts.Now().Sub(bs.now).Milliseconds(),
	}
	for _, e := range bs.resolver.Manifest().Assets {
		m.Inputs.Assets[e.Key] = e.Hash
	}
	for _, a := range bs.artifacts {
		m.Outputs.ArtifactHashes[a.Path] = a.Hash
	}

	base := b.opts.BaseDir
	if base == "" {
		base = "."
	}
	prov, err := git.Describe(base)
	switch {
	case err == nil:
		m.Inputs.SourceCommit = prov.Commit
		m.Inputs.SourceBranch = prov.Branch
		m.Inputs.SourceDirty = prov.Dirty
		if !prov.CommitTime.IsZero() {
			m.Inputs.SourceCommitTime = &prov.CommitTime
		}
		slog.Info("Source revision",
			slog.String("commit", prov.ShortCommit()),
			slog.String("branch", prov.Branch),
			slog.Bool("dirty", prov.Dirty))
	case errors.Is(err, git.ErrNotRepository):
		// sources are not versioned
	default:
		slog.Warn("Could not read source provenance", logfields.Path(base), logfields.Error(err))
	}
	return m
}

// ConfigHash returns a stable hash of the configuration.
func ConfigHash(cfg *config.Config) string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
