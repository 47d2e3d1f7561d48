package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output   string        `short:"o" help:"Output directory; overrides paths.output" type:"path"`
	Debounce time.Duration `help:"Quiet period after a change before rebuilding" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, baseDir, err := root.loadConfig()
	if err != nil {
		return err
	}
	if w.Output != "" {
		cfg.Paths.Output = w.Output
	}
	sb := newSiteBuilder(cfg, baseDir, "")

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	var dirs []string
	for _, c := range cfg.Paths.Content {
		dirs = append(dirs, abs(c))
	}
	for _, d := range []string{cfg.Paths.Assets, cfg.Paths.Layouts, cfg.Paths.Static} {
		if d != "" {
			dirs = append(dirs, abs(d))
		}
	}
	output := abs(cfg.Paths.Output)

	watcher := watch.New(dirs, func(ctx context.Context) error {
		res, err := sb.build(ctx)
		if res != nil {
			fmt.Println(res.Report.Summary())
		}
		return err
	}).WithDebounce(w.Debounce).Ignore(output)
	return watcher.Run(g.Context)
}
