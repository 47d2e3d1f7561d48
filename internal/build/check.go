package build

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// CheckResult summarizes a dry run over the build inputs.
type CheckResult struct {
	Records  map[string]int
	Assets   int
	Problems []error
}

// Err joins all problems, or returns nil when there are none.
func (r *CheckResult) Err() error { return errors.Join(r.Problems...) }

// Check loads content and verifies that every page's records, assets and
// templates exist, without resolving assets or writing output. A content load
// failure is returned as the error; dependency problems are collected.
func (b *Builder) Check(ctx context.Context) (*CheckResult, error) {
	bs := &buildState{
		cfg:     b.cfg,
		paths:   b.paths(),
		schemas: content.NewSchemaRegistry(b.cfg.Schemas),
	}
	if err := b.cfg.ValidatePaths(b.opts.BaseDir); err != nil {
		return nil, err
	}
	store, err := content.Load(ctx, bs.paths.content, bs.schemas)
	if err != nil {
		return nil, err
	}
	bs.store = store

	res := &CheckResult{Records: make(map[string]int)}
	for _, typ := range store.Types() {
		res.Records[typ] = store.Count(typ)
	}

	for _, page := range b.cfg.Pages {
		for _, req := range page.Requires {
			if !req.Optional && store.Count(req.Type) == 0 {
				res.Problems = append(res.Problems, &compose.MissingDependencyError{Page: page.Name, Kind: "records", Name: req.Type})
			}
		}
	}

	refs, err := collectReferences(bs)
	if err != nil {
		return nil, err
	}
	res.Assets = len(refs)
	for _, ref := range refs {
		src := filepath.Join(bs.paths.assets, filepath.FromSlash(ref.Clean().Path))
		if st, serr := os.Stat(src); serr != nil || st.IsDir() {
			res.Problems = append(res.Problems, &assets.NotFoundError{Ref: ref, Source: bs.paths.assets, Err: serr})
		}
	}

	r, err := render.New(render.Options{OutputDir: bs.paths.output, LayoutsDir: bs.paths.layouts})
	if err != nil {
		res.Problems = append(res.Problems, err)
	} else {
		templates := r.Templates()
		for _, page := range b.cfg.Pages {
			name := cmp.Or(page.Template, page.Name)
			if !slices.Contains(templates, name) {
				res.Problems = append(res.Problems, &render.Error{Page: page.Name, Template: name, Op: "lookup", Err: errors.New("template not defined")})
			}
		}
	}

	for _, p := range res.Problems {
		slog.Warn("Check problem", logfields.Error(p))
	}
	return res, nil
}
