package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory; overrides paths.output" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file after the build; overrides metrics.file" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, baseDir, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Paths.Output = b.Output
	}
	sb := newSiteBuilder(cfg, baseDir, b.MetricsFile)
	res, err := sb.build(g.Context)
	if res != nil {
		fmt.Println(res.Report.Summary())
	}
	return err
}

// siteBuilder wires a build.Builder to the optional metrics textfile.
type siteBuilder struct {
	builder     *build.Builder
	recorder    *metrics.PrometheusRecorder
	metricsFile string
}

func newSiteBuilder(cfg *config.Config, baseDir, metricsFile string) *siteBuilder {
	if metricsFile == "" && cfg.Metrics.File != "" {
		metricsFile = cfg.Metrics.File
		if !filepath.IsAbs(metricsFile) {
			metricsFile = filepath.Join(baseDir, metricsFile)
		}
	}
	sb := &siteBuilder{metricsFile: metricsFile}
	opts := build.Options{BaseDir: baseDir}
	if metricsFile != "" {
		sb.recorder = metrics.NewPrometheusRecorder(nil)
		opts.Recorder = sb.recorder
	}
	sb.builder = build.New(cfg, opts)
	return sb
}

func (sb *siteBuilder) build(ctx context.Context) (*build.Result, error) {
	res, err := sb.builder.Build(ctx)
	if sb.recorder != nil {
		if werr := sb.recorder.WriteTextfile(sb.metricsFile); werr != nil {
			slog.Warn("Failed to write metrics file", logfields.File(sb.metricsFile), logfields.Error(werr))
		}
	}
	return res, err
}
