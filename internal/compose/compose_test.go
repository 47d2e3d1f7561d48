package compose

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

type fakeStore map[string][]content.Record

func (s fakeStore) Records(typ string) []content.Record { return s[typ] }

type fakeIndex map[string]assets.Resolved

func (f fakeIndex) Lookup(ref assets.Reference) (assets.Resolved, bool) {
	r, ok := f[ref.Key()]
	return r, ok
}

func (f fakeIndex) add(ref assets.Reference, out string) {
	f[ref.Key()] = assets.Resolved{Ref: ref.Clean(), OutputPath: out}
}

func record(t *testing.T, typ, name string, fields map[string]any) content.Record {
	t.Helper()
	r, err := content.NewRecord(typ, name, fields, nil)
	require.NoError(t, err)
	return r
}

func testSite() config.SiteMetadata {
	return config.SiteMetadata{Title: "Test Site", Description: "desc", URL: "https://example.com"}
}

func TestComposeSocialLinks(t *testing.T) {
	store := fakeStore{"social": {
		record(t, "social", "Github", map[string]any{"url": "https://github.com/x"}),
		record(t, "social", "YouTube", map[string]any{"url": "https://youtube.com/x"}),
	}}
	spec := config.PageSpec{Name: "home", Path: "/", Requires: []config.Requirement{{Type: "social"}}}

	pc, err := Compose(testSite(), store, fakeIndex{}, spec)
	require.NoError(t, err)

	assert.Equal(t, "Test Site", pc.Site.Title)
	require.Len(t, pc.Get("social"), 2)
	assert.Equal(t, "Github", pc.Get("social")[0].Name)
	assert.Equal(t, "YouTube", pc.Get("social")[1].Name)
	assert.Equal(t, "Test Site", pc.Page.Title)
	assert.Equal(t, "https://example.com/", pc.Page.URL)
	assert.Equal(t, "home", pc.Page.Template)
}

func TestComposeDoesNotShareSite(t *testing.T) {
	site := testSite()
	site.Keywords = []string{"a"}
	pc, err := Compose(site, fakeStore{}, fakeIndex{}, config.PageSpec{Name: "home", Path: "/"})
	require.NoError(t, err)

	pc.Site.Keywords[0] = "changed"
	assert.Equal(t, "a", site.Keywords[0])
}

func TestComposeMissingDependencies(t *testing.T) {
	idx := fakeIndex{}
	idx.add(assets.Reference{Path: "images/logo.png", Width: 35, Height: 35}, "/static/logo.png")

	tests := []struct {
		name    string
		spec    config.PageSpec
		wantErr bool
	}{
		{
			name:    "mandatory type empty",
			spec:    config.PageSpec{Name: "home", Path: "/", Requires: []config.Requirement{{Type: "video"}}},
			wantErr: true,
		},
		{
			name: "optional type empty",
			spec: config.PageSpec{Name: "home", Path: "/", Requires: []config.Requirement{{Type: "video", Optional: true}}},
		},
		{
			name: "asset resolved",
			spec: config.PageSpec{Name: "home", Path: "/", Assets: []config.AssetSpec{
				{Name: "logo", Path: "images/logo.png", Width: 35, Height: 35},
			}},
		},
		{
			name: "asset with other parameters",
			spec: config.PageSpec{Name: "home", Path: "/", Assets: []config.AssetSpec{
				{Name: "logo", Path: "images/logo.png", Width: 70},
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := Compose(testSite(), fakeStore{}, idx, tt.spec)
			if !tt.wantErr {
				require.NoError(t, err)
				require.NotNil(t, pc)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingDependency))
			assert.Equal(t, ferrors.CategoryCompose, ferrors.GetCategory(err))
			assert.Nil(t, pc)
		})
	}
}

func TestComposeSortAndLimit(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	store := fakeStore{"blog": {
		record(t, "blog", "a", map[string]any{"date": day(1)}),
		record(t, "blog", "b", map[string]any{"date": day(3)}),
		record(t, "blog", "c", map[string]any{"date": day(2)}),
	}}
	spec := config.PageSpec{Name: "home", Path: "/", Requires: []config.Requirement{
		{Type: "blog", SortBy: "date", Order: "desc", Limit: 2},
	}}

	pc, err := Compose(testSite(), store, fakeIndex{}, spec)
	require.NoError(t, err)
	got := pc.Get("blog")
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
	assert.Equal(t, "a", store["blog"][0].Name, "store order must not change")
}

func TestComposeAllCollections(t *testing.T) {
	store := fakeStore{
		"blog": {
			record(t, "blog", "Hello World", map[string]any{"title": "Hello", "cover": "images/cover.jpg"}),
			record(t, "blog", "second", nil),
		},
	}
	idx := fakeIndex{}
	idx.add(assets.Reference{Path: "images/cover.jpg"}, "/static/images/cover-abc.jpg")
	bodies := Bodies{"blog/Hello World": &markup.Output{HTML: "<p>hi</p>", Summary: "hi"}}
	specs := []config.PageSpec{
		{Name: "home", Path: "/", Requires: []config.Requirement{{Type: "blog"}}},
		{Name: "post", Path: "/blog/{name}/", Each: "blog"},
	}

	pages, err := ComposeAll(testSite(), store, idx, specs, bodies)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, "/", pages[0].Page.Path)
	assert.Equal(t, "hi", pages[0].Summary(store["blog"][0]))

	first := pages[1]
	assert.Equal(t, "/blog/hello-world/", first.Page.Path)
	assert.Equal(t, "Hello", first.Page.Title)
	require.NotNil(t, first.Record)
	assert.Equal(t, "Hello World", first.Record.Name)
	assert.EqualValues(t, "<p>hi</p>", first.HTML())
	img, ok := first.Image("images/cover.jpg")
	require.True(t, ok)
	assert.Equal(t, "/static/images/cover-abc.jpg", img.OutputPath)

	second := pages[2]
	assert.Equal(t, "/blog/second/", second.Page.Path)
	assert.Equal(t, "second", second.Page.Title)
	assert.Empty(t, second.HTML())
}

func TestComposeAllLinksRecordsToCollectionPages(t *testing.T) {
	store := fakeStore{
		"blog": {
			record(t, "blog", "Hello World", map[string]any{"title": "Hello"}),
			record(t, "blog", "second", nil),
		},
		"social": {record(t, "social", "Github", map[string]any{"url": "https://github.com/x"})},
	}
	specs := []config.PageSpec{
		{Name: "home", Path: "/", Requires: []config.Requirement{{Type: "blog"}, {Type: "social"}}},
		{Name: "post", Path: "/posts/{name}", Each: "blog"},
		{Name: "print", Path: "/print/{name}/", Each: "blog"},
	}

	pages, err := ComposeAll(testSite(), store, fakeIndex{}, specs, nil)
	require.NoError(t, err)
	home := pages[0]
	assert.Equal(t, "/posts/hello-world/", home.URL(store["blog"][0]))
	assert.Equal(t, "/posts/second/", home.URL(store["blog"][1]))
	assert.Empty(t, home.URL(store["social"][0]))

	assert.Equal(t, map[string]string{
		"blog/Hello World": "/posts/hello-world/",
		"blog/second":      "/posts/second/",
	}, RecordPaths(store, specs))
}

func TestComposeSiteLogo(t *testing.T) {
	site := testSite()
	site.Logo = "images/logo.png"
	idx := fakeIndex{}
	idx.add(assets.Reference{Path: "images/logo.png", Width: 35, Height: 35}, "/static/logo-35x35.png")
	idx.add(assets.Reference{Path: "images/brand.png", Width: 50}, "/static/brand-50.png")

	pc, err := Compose(site, fakeStore{}, idx, config.PageSpec{Name: "home", Path: "/"})
	require.NoError(t, err)
	logo, ok := pc.Asset(LogoAsset)
	require.True(t, ok)
	assert.Equal(t, "/static/logo-35x35.png", logo.OutputPath)

	spec := config.PageSpec{Name: "home", Path: "/", Assets: []config.AssetSpec{{Name: LogoAsset, Path: "images/brand.png", Width: 50}}}
	pc, err = Compose(site, fakeStore{}, idx, spec)
	require.NoError(t, err)
	logo, _ = pc.Asset(LogoAsset)
	assert.Equal(t, "/static/brand-50.png", logo.OutputPath, "a page asset overrides the site logo")

	_, err = Compose(site, fakeStore{}, fakeIndex{}, config.PageSpec{Name: "home", Path: "/"})
	var missing *MissingDependencyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, LogoAsset, missing.Name)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Hello World":     "hello-world",
		"  spaced  out ":  "spaced-out",
		"already-slugged": "already-slugged",
		"Ünïcode & more!": "n-code-more",
		"2024 recap":      "2024-recap",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", normalizePath(""))
	assert.Equal(t, "/about/", normalizePath("about"))
	assert.Equal(t, "/404.html", normalizePath("/404.html"))
	assert.Equal(t, "/blog/x/", normalizePath("/blog/x/"))
}
