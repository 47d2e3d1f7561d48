package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

func stageCompose(_ context.Context, bs *buildState) error {
	pages, err := compose.ComposeAll(bs.cfg.Site, bs.store, bs.resolver, bs.cfg.Pages, bs.bodies)
	if err != nil {
		return err
	}
	bs.pages = pages
	slog.Debug("Composed pages", logfields.Count(len(pages)))
	return nil
}

// stageRender copies static files, renders every composed page and writes the
// asset and web app manifests into the staging directory.
func stageRender(ctx context.Context, bs *buildState) error {
	n, err := copyTree(bs.paths.static, bs.staging)
	if err != nil {
		return &PublishError{Op: "copy static", Dir: bs.paths.static, Err: err}
	}
	if n > 0 {
		slog.Debug("Copied static files", logfields.Count(n), logfields.Path(bs.paths.static))
	}

	renderer, err := render.New(render.Options{
		OutputDir:  bs.staging,
		LayoutsDir: bs.paths.layouts,
		Now:        func() time.Time { return bs.now },
	})
	if err != nil {
		return err
	}

	owners := make(map[string]string, len(bs.pages))
	for _, pc := range bs.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := render.OutputFile(pc.Page.Path)
		if err != nil {
			return &render.Error{Page: pc.Page.Name, Template: pc.Page.Template, Op: "path", Err: err}
		}
		if other, dup := owners[rel]; dup {
			return &render.Error{Page: pc.Page.Name, Template: pc.Page.Template, Op: "path",
				Err: fmt.Errorf("%s is also written by page %q", rel, other)}
		}
		owners[rel] = pc.Page.Name

		art, err := renderer.Render(pc, pc.Page.Template)
		if err != nil {
			return err
		}
		bs.artifacts = append(bs.artifacts, art)
		slog.Debug("Rendered page", logfields.Page(pc.Page.Name), logfields.File(art.Path))
	}

	if bs.cfg.Site.Manifest.Enabled {
		art, err := renderer.WriteWebManifest(bs.cfg.Site, bs.icons)
		if err != nil {
			return err
		}
		bs.artifacts = append(bs.artifacts, art)
	}
	if err := manifest.WriteJSON(bs.staging, manifest.AssetManifestFile, bs.resolver.Manifest()); err != nil {
		return &PublishError{Op: "write asset manifest", Dir: bs.staging, Err: err}
	}
	return nil
}
