package build

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

func stageLoad(ctx context.Context, bs *buildState) error {
	store, err := content.Load(ctx, bs.paths.content, bs.schemas)
	if err != nil {
		return err
	}
	bs.store = store
	for _, typ := range store.Types() {
		bs.report.Records[typ] = store.Count(typ)
		slog.Debug("Loaded records", logfields.RecordType(typ), logfields.Count(store.Count(typ)))
	}
	return nil
}
