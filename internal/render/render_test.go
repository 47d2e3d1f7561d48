package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

func fixedNow() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

func newRenderer(t *testing.T, layouts string) (*Renderer, string) {
	t.Helper()
	out := t.TempDir()
	r, err := New(Options{OutputDir: out, LayoutsDir: layouts, Now: fixedNow})
	require.NoError(t, err)
	return r, out
}

func rec(t *testing.T, typ, name string, fields map[string]any) content.Record {
	t.Helper()
	r, err := content.NewRecord(typ, name, fields, nil)
	require.NoError(t, err)
	return r
}

func writeAsset(t *testing.T, out string, a assets.Resolved) assets.Resolved {
	t.Helper()
	p := filepath.Join(out, a.File())
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return a
}

func homeContext(t *testing.T, out string) *compose.PageContext {
	t.Helper()
	logo := writeAsset(t, out, assets.Resolved{OutputPath: "/static/images/logo-abc-35x35.png", Width: 35, Height: 35, Format: "png"})
	return &compose.PageContext{
		Site: config.SiteMetadata{
			Title:        "Test Site",
			ShortTitle:   "Test",
			Description:  "A test site",
			Author:       "Jane",
			URL:          "https://example.com",
			Language:     "en_US",
			FormEndpoint: "https://forms.example.com/x",
		},
		Page: compose.Page{Name: "home", Template: "home", Path: "/", URL: "https://example.com/", Title: "Test Site"},
		Records: map[string][]content.Record{
			"social": {
				rec(t, "social", "Github", map[string]any{"url": "https://github.com/jane"}),
				rec(t, "social", "YouTube", map[string]any{"url": "https://youtube.com/@jane"}),
			},
			"menu":  {rec(t, "menu", "/#blog", map[string]any{"title": "Blog", "path": "/#blog"})},
			"video": {rec(t, "video", "abc123", map[string]any{"title": "Intro", "embed": "https://www.youtube.com/watch?v=abc123"})},
		},
		Assets: map[string]assets.Resolved{"logo": logo},
		Media:  map[string]assets.Resolved{},
	}
}

func TestRenderHome(t *testing.T) {
	r, out := newRenderer(t, "")
	pc := homeContext(t, out)

	art, err := r.Render(pc, "home")
	require.NoError(t, err)
	assert.Equal(t, "index.html", art.Path)

	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	html := string(data)
	assert.EqualValues(t, len(data), art.Bytes)

	assert.Contains(t, html, "<title>Test Site</title>")
	assert.Contains(t, html, `lang="en-US"`)
	assert.Contains(t, html, `src="/static/images/logo-abc-35x35.png" width="35" height="35"`)
	assert.Contains(t, html, `href="/#blog">Blog</a>`)
	assert.Contains(t, html, `https://youtube.com/@jane`)
	assert.NotContains(t, html, "https://github.com/jane", "footer omits Github")
	assert.Contains(t, html, `src="https://www.youtube.com/embed/abc123"`)
	assert.Contains(t, html, `action="https://forms.example.com/x" method="POST"`)
	assert.Contains(t, html, "&copy; 2024 Jane")
	assert.Contains(t, html, `<link rel="canonical" href="https://example.com/">`)
}

func TestRenderSiteDetailsAndPostLinks(t *testing.T) {
	r, out := newRenderer(t, "")
	pc := homeContext(t, out)
	pc.Site.Email = "jane@example.com"
	pc.Site.Location = "Oslo, Norway"
	pc.Site.FormEndpoint = ""
	pc.Records["blog"] = []content.Record{
		rec(t, "blog", "hello", map[string]any{"title": "Hello"}),
		rec(t, "blog", "draft", map[string]any{"title": "Draft"}),
	}
	pc.Links = map[string]string{"blog/hello": "/posts/hello/"}

	_, err := r.Render(pc, "home")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, `<section id="contact">`, "email alone shows the contact section")
	assert.NotContains(t, html, "<form")
	assert.Contains(t, html, `href="mailto:jane@example.com"`)
	assert.Contains(t, html, `<p class="location">Oslo, Norway</p>`)
	assert.Contains(t, html, `<h3><a href="/posts/hello/">Hello</a></h3>`)
	assert.Contains(t, html, `<h3>Draft</h3>`)
	assert.NotContains(t, html, `href="/blog/`)
}

func TestRenderIsDeterministic(t *testing.T) {
	r, out := newRenderer(t, "")
	pc := homeContext(t, out)

	first, err := r.Render(pc, "home")
	require.NoError(t, err)
	second, err := r.Render(pc, "home")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderPost(t *testing.T) {
	r, out := newRenderer(t, "")
	cover := writeAsset(t, out, assets.Resolved{OutputPath: "/static/images/cover-abc-800x400.jpg", Width: 800, Height: 400})
	post := rec(t, "blog", "hello", map[string]any{
		"title":  "Hello",
		"date":   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		"author": "Jane",
		"cover":  "images/cover.jpg",
	})
	pc := &compose.PageContext{
		Site:   config.SiteMetadata{Title: "Test Site"},
		Page:   compose.Page{Name: "post", Path: "/blog/hello/", Title: "Hello"},
		Media:  map[string]assets.Resolved{"images/cover.jpg": cover},
		Record: &post,
		Body:   &markup.Output{HTML: "<p>Body text</p>"},
	}

	art, err := r.Render(pc, "post")
	require.NoError(t, err)
	assert.Equal(t, "blog/hello/index.html", art.Path)

	data, err := os.ReadFile(filepath.Join(out, "blog", "hello", "index.html"))
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<title>Hello | Test Site</title>")
	assert.Contains(t, html, "<p>Body text</p>")
	assert.Contains(t, html, `<time datetime="2024-05-01">May 1, 2024</time> by Jane`)
	assert.Contains(t, html, `src="/static/images/cover-abc-800x400.jpg"`)
}

func TestRenderFailures(t *testing.T) {
	tests := []struct {
		name     string
		template string
		mutate   func(pc *compose.PageContext)
	}{
		{
			name:     "unknown template",
			template: "missing",
			mutate:   func(*compose.PageContext) {},
		},
		{
			name:     "asset file missing",
			template: "home",
			mutate: func(pc *compose.PageContext) {
				pc.Assets["banner"] = assets.Resolved{OutputPath: "/static/images/gone.jpg"}
			},
		},
		{
			name:     "unresolved record image",
			template: "home",
			mutate: func(pc *compose.PageContext) {
				pc.Records["gallery"] = []content.Record{rec(t, "gallery", "a.jpg", map[string]any{"image": "images/a.jpg"})}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out := newRenderer(t, "")
			pc := homeContext(t, out)
			tt.mutate(pc)

			_, err := r.Render(pc, tt.template)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRender))
			assert.Equal(t, ferrors.CategoryRender, ferrors.GetCategory(err))

			var rerr *Error
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, "home", rerr.Page)

			_, statErr := os.Stat(filepath.Join(out, "index.html"))
			assert.True(t, os.IsNotExist(statErr), "no page may be written on failure")
		})
	}
}

func TestUserLayoutsOverrideTheme(t *testing.T) {
	layouts := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(layouts, "partials"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(layouts, "partials", "footer.html"),
		[]byte(`{{ define "footer" }}<footer>custom footer</footer>{{ end }}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(layouts, "about.html"),
		[]byte(`{{ template "base" . }}{{ define "main" }}<p>about {{ .Site.Author }}</p>{{ end }}`), 0o644))

	r, out := newRenderer(t, layouts)
	assert.Contains(t, r.Templates(), "about")
	assert.Contains(t, r.Templates(), "home")

	pc := homeContext(t, out)
	pc.Page = compose.Page{Name: "about", Path: "/about/", Title: "About"}

	art, err := r.Render(pc, "about")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(art.Path)))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<p>about Jane</p>")
	assert.Contains(t, string(data), "custom footer")
	assert.NotContains(t, string(data), "back-to-top")
}

func TestNewRejectsBrokenLayout(t *testing.T) {
	layouts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(layouts, "broken.html"), []byte(`{{ if }}`), 0o644))

	_, err := New(Options{OutputDir: t.TempDir(), LayoutsDir: layouts})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRender))
}

func TestWriteWebManifest(t *testing.T) {
	r, out := newRenderer(t, "")
	site := config.SiteMetadata{
		Title:      "Test Site",
		ShortTitle: "Test",
		Manifest:   config.WebManifestConfig{Enabled: true, StartURL: "/", Display: "minimal-ui", ThemeColor: "#1d1d1d"},
	}
	icons := []assets.Resolved{
		{OutputPath: "/static/icon-192x192.png", Width: 192, Height: 192, Format: "png"},
		{OutputPath: "/static/icon-512x512.png", Width: 512, Height: 512, Format: "png"},
	}

	art, err := r.WriteWebManifest(site, icons)
	require.NoError(t, err)
	assert.Equal(t, WebManifestFile, art.Path)

	data, err := os.ReadFile(filepath.Join(out, WebManifestFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Test Site",
		"short_name": "Test",
		"start_url": "/",
		"theme_color": "#1d1d1d",
		"display": "minimal-ui",
		"icons": [
			{"src": "/static/icon-192x192.png", "sizes": "192x192", "type": "image/png"},
			{"src": "/static/icon-512x512.png", "sizes": "512x512", "type": "image/png"}
		]
	}`, string(data))
}

func TestOutputFile(t *testing.T) {
	tests := map[string]string{
		"/":            "index.html",
		"":             "index.html",
		"/blog/hello/": "blog/hello/index.html",
		"/about":       "about/index.html",
		"/404.html":    "404.html",
	}
	for in, want := range tests {
		got, err := OutputFile(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := OutputFile("/../etc/passwd")
	require.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "github", socialIcon("GitHub"))
	assert.Equal(t, "mail", socialIcon("Email"))
	assert.Equal(t, "link", socialIcon("Blog"))

	assert.Equal(t, "https://www.youtube.com/embed/abc", youtubeEmbed("abc"))
	assert.Equal(t, "https://www.youtube.com/embed/abc", youtubeEmbed("https://youtu.be/abc"))
	assert.Equal(t, "https://www.youtube.com/embed/abc", youtubeEmbed("https://www.youtube.com/watch?v=abc"))
	assert.Equal(t, "https://www.youtube.com/embed/abc", youtubeEmbed("https://www.youtube.com/embed/abc"))

	links := []config.SocialLink{{Name: "Github"}, {Name: "YouTube"}}
	assert.Equal(t, []config.SocialLink{{Name: "YouTube"}}, without(links, "github"))
	assert.Len(t, links, 2)
}
