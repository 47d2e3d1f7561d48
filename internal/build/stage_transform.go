package build

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

func (bs *buildState) concurrency() int {
	return max(1, bs.cfg.Build.Concurrency)
}

// stageTransform converts every markdown body concurrently. Records are independent,
// so each worker writes only its own slot of the result slice.
func stageTransform(ctx context.Context, bs *buildState) error {
	var records []content.Record
	for _, rec := range bs.store.All() {
		if rec.HasBody() {
			records = append(records, rec)
		}
	}

	opts := markup.Options{
		ImageMaxWidth: bs.cfg.ImageOptionsFor(config.TransformStageTransforming).MaxWidth,
		Images:        bs.imageLookup,
		Sanitize:      bs.cfg.Markdown.Sanitize,
		Typographer:   bs.cfg.Markdown.Typographer,
	}

	outputs := make([]*markup.Output, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.concurrency())
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := markup.Transform(rec.Body(), opts)
			if err != nil {
				return fmt.Errorf("record %s (%s): %w", rec.Key(), rec.Source, err)
			}
			outputs[i] = &out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	bs.bodies = make(compose.Bodies, len(records))
	for i, rec := range records {
		bs.bodies[rec.Key()] = outputs[i]
	}
	slog.Debug("Transformed bodies", logfields.Count(len(records)))
	return nil
}

// imageLookup exposes plain resolved references to the transformer.
func (bs *buildState) imageLookup(p string) (markup.ResolvedImage, bool) {
	res, ok := bs.resolver.Lookup(assets.Reference{Path: p})
	if !ok {
		return markup.ResolvedImage{}, false
	}
	return markup.ResolvedImage{URL: res.OutputPath, Width: res.Width, Height: res.Height}, true
}
