package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

func TestCheckClean(t *testing.T) {
	f := newFixture(t)
	res, err := f.builder(nil).Check(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Equal(t, map[string]int{"blog": 2, "menu": 1, "social": 2}, res.Records)
	// logo 35x35, cover, pic and two manifest icons
	assert.Equal(t, 5, res.Assets)

	_, statErr := os.Stat(f.output())
	assert.True(t, os.IsNotExist(statErr), "check must not write output")
}

func TestCheckCollectsProblems(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.root, "assets", "images", "cover.png")))
	require.NoError(t, os.Remove(filepath.Join(f.root, "content", "menu.yaml")))
	f.cfg.Pages = append(f.cfg.Pages, config.PageSpec{Name: "about", Path: "/about/", Template: "nosuch"})

	res, err := f.builder(nil).Check(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Problems, 3)

	joined := res.Err()
	assert.True(t, errors.Is(joined, compose.ErrMissingDependency))
	assert.True(t, errors.Is(joined, assets.ErrAssetNotFound))
	assert.True(t, errors.Is(joined, render.ErrRender))
}

func TestCheckContentLoadError(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "content/broken.yaml", "- {name: [unclosed\n")

	_, err := f.builder(nil).Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrContentLoad))
}
