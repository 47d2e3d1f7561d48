package build

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// stageResolve materializes every asset a later stage can reference: named page
// assets, record image fields, images embedded in markdown bodies and the web
// manifest icons.
func stageResolve(ctx context.Context, bs *buildState) error {
	imgOpts := bs.cfg.ImageOptionsFor(config.TransformStageResolving)
	bs.resolver = assets.NewResolver(assets.Options{
		SourceDir: bs.paths.assets,
		OutputDir: bs.staging,
		MaxWidth:  imgOpts.MaxWidth,
		Quality:   imgOpts.Quality,
		Recorder:  bs.recorder,
	})

	refs, err := collectReferences(bs)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.concurrency())
	for _, ref := range refs {
		g.Go(func() error {
			_, err := bs.resolver.Resolve(gctx, ref)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if site := bs.cfg.Site; site.Manifest.Enabled && site.Manifest.Icon != "" {
		for _, size := range render.WebManifestIconSizes {
			icon, ok := bs.resolver.Lookup(iconReference(site.Manifest.Icon, size))
			if ok {
				bs.icons = append(bs.icons, icon)
			}
		}
	}
	bs.report.Assets = len(bs.resolver.Manifest().Assets)
	slog.Debug("Resolved assets", logfields.Count(bs.report.Assets))
	return nil
}

func iconReference(p string, size int) assets.Reference {
	return assets.Reference{Path: p, Width: size, Height: size, Fit: assets.FitCover}
}

// collectReferences lists the references to resolve, deduplicated by key, in a
// stable order.
func collectReferences(bs *buildState) ([]assets.Reference, error) {
	seen := make(map[string]bool)
	var refs []assets.Reference
	add := func(ref assets.Reference) {
		if ref.Path == "" {
			return
		}
		if k := ref.Key(); !seen[k] {
			seen[k] = true
			refs = append(refs, ref)
		}
	}

	for _, page := range bs.cfg.Pages {
		for _, a := range page.Assets {
			ref, err := compose.ReferenceFor(a)
			if err != nil {
				return nil, err
			}
			add(ref)
		}
	}
	if logo, ok := compose.SiteLogo(bs.cfg.Site); ok {
		ref, err := compose.ReferenceFor(logo)
		if err != nil {
			return nil, err
		}
		add(ref)
	}
	imageFields := bs.schemas.ImageFields()
	for _, typ := range slices.Sorted(maps.Keys(imageFields)) {
		fields := imageFields[typ]
		for _, rec := range bs.store.Records(typ) {
			for _, f := range fields {
				add(assets.Reference{Path: rec.String(f)})
			}
		}
	}
	for _, rec := range bs.store.All() {
		if !rec.HasBody() {
			continue
		}
		for _, p := range markdown.LocalImages(rec.Body()) {
			add(assets.Reference{Path: p})
		}
	}
	if site := bs.cfg.Site; site.Manifest.Enabled && site.Manifest.Icon != "" {
		for _, size := range render.WebManifestIconSizes {
			add(iconReference(site.Manifest.Icon, size))
		}
	}
	return refs, nil
}
