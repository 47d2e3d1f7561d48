package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	return root
}

func TestLoadPreservesEncounterOrder(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"SocialLink.json": `[{"name": "Github", "url": "https://github.com/x"}, {"name": "YouTube", "url": "https://youtube.com/x"}]`,
		"menu.yaml":       "- {title: Home, path: /}\n- {title: Blog, path: /blog/}\n",
		"author.json":     `{"name": "Jane", "bio": "Writer", "age": 30}`,
		"blog/b-post.md":  "---\ntitle: B\ndate: 2024-02-01\nauthor: Jane\n---\nSecond\n",
		"blog/a-post.md":  "---\ntitle: A\ndate: 2024-01-01\nauthor: Jane\n---\nFirst\n",
		"about.md":        "About body\n",
		"notes.txt":       "ignored",
		".hidden/x.json":  `{"name": "x"}`,
	})

	store, err := Load(context.Background(), []string{root}, NewSchemaRegistry(map[string]config.SchemaConfig{
		"menu": {Key: "path", Required: []string{"title", "path"}},
		"blog": {Required: []string{"title"}, Fields: map[string]string{"date": "date"}, References: map[string]string{"author": "author.name"}},
	}))
	require.NoError(t, err)

	social := store.Records("SocialLink")
	require.Len(t, social, 2)
	assert.Equal(t, "Github", social[0].Name)
	assert.Equal(t, "YouTube", social[1].Name)

	menu := store.Records("menu")
	require.Len(t, menu, 2)
	assert.Equal(t, "/", menu[0].Name)
	assert.Equal(t, "Blog", menu[1].Title())

	blog := store.Records("blog")
	require.Len(t, blog, 2)
	assert.Equal(t, "a-post", blog[0].Name, "lexical file order")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), blog[0].Time("date"))
	assert.Equal(t, "First\n", string(blog[0].Body()))
	assert.NotEmpty(t, blog[0].Fingerprint)

	author, ok := store.Get("author", "Jane")
	require.True(t, ok)
	assert.Equal(t, int64(30), author.Int("age"))

	page, ok := store.Get(PageType, "about")
	require.True(t, ok)
	assert.Equal(t, "About", page.Title())

	assert.NotContains(t, store.Types(), "x")
	assert.Equal(t, 8, store.Len())
}

func TestLoadTypeFieldOverridesLocation(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"data.json": `[{"type": "video", "name": "intro", "embed": "abc"}, {"type": "gallery", "name": "g1"}]`,
	})
	store, err := Load(context.Background(), []string{root}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"video", "gallery"}, store.Types())
	v, ok := store.Get("video", "intro")
	require.True(t, ok)
	assert.False(t, v.Has(TypeField))
}

func TestLoadDuplicateRecord(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"social.json": `[{"name": "Github"}, {"name": "Github"}]`,
	})
	_, err := Load(context.Background(), []string{root}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	var dup *DuplicateRecordError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "social", dup.Type)
	assert.Equal(t, "Github", dup.Name)
	assert.Equal(t, ferrors.CategoryContent, ferrors.GetCategory(err))
}

func TestLoadDuplicateAcrossDirectories(t *testing.T) {
	a := writeFiles(t, map[string]string{"social.yaml": "name: Github\n"})
	b := writeFiles(t, map[string]string{"social.yaml": "name: Github\n"})
	_, err := Load(context.Background(), []string{a, b}, nil)
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestLoadNamelessRecordKeys(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		keys  []string
	}{
		{
			name:  "top level",
			files: map[string]string{"links.yaml": "- title: a\n- title: b\n"},
			keys:  []string{"links-0", "links-1"},
		},
		{
			name: "same file name in sibling directories",
			files: map[string]string{
				"a/links.yaml": "title: a\n",
				"b/links.yaml": "title: b\n",
			},
			keys: []string{"a/links-0", "b/links-0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeFiles(t, tt.files)
			store, err := Load(context.Background(), []string{root}, nil)
			require.NoError(t, err)
			var keys []string
			for _, rec := range store.Records("links") {
				keys = append(keys, rec.Name)
			}
			assert.Equal(t, tt.keys, keys)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	schemas := NewSchemaRegistry(map[string]config.SchemaConfig{
		"social": {Required: []string{"url"}, Fields: map[string]string{"url": "url"}},
		"blog":   {References: map[string]string{"author": "author"}},
		"video":  {Key: "embed"},
	})
	tests := []struct {
		name   string
		files  map[string]string
		reason string
	}{
		{"malformed json", map[string]string{"social.json": `{"name": `}, "malformed JSON"},
		{"trailing json", map[string]string{"social.json": `{"name": "a", "url": "/"} {}`}, "trailing data"},
		{"malformed yaml", map[string]string{"menu.yaml": "a: [b"}, "malformed YAML"},
		{"scalar document", map[string]string{"menu.json": `42`}, "expected an object"},
		{"missing required", map[string]string{"social.json": `{"name": "a"}`}, `missing required field "url"`},
		{"bad url", map[string]string{"social.json": `{"name": "a", "url": "github.com"}`}, "must be absolute"},
		{"nested value", map[string]string{"menu.json": `{"name": "a", "children": []}`}, "not a scalar"},
		{"unterminated front matter", map[string]string{"blog/x.md": "---\ntitle: x\n"}, "malformed front matter"},
		{"dangling reference", map[string]string{"blog/x.md": "---\nauthor: Nobody\n---\n"}, `unknown author "Nobody"`},
		{"missing explicit key", map[string]string{"video.json": `{"title": "t"}`}, `missing key field "embed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeFiles(t, tt.files)
			_, err := Load(context.Background(), []string{root}, schemas)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrContentLoad)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, nil)
	assert.ErrorIs(t, err, ErrContentLoad)
}

func TestLoadCanceled(t *testing.T) {
	root := writeFiles(t, map[string]string{"social.json": `{"name": "a"}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, []string{root}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordIsImmutable(t *testing.T) {
	rec, err := NewRecord("social", "Github", map[string]any{"url": "https://github.com/x", "order": 1}, []byte("body"))
	require.NoError(t, err)

	fields := rec.Fields()
	fields["url"] = "changed"
	body := rec.Body()
	body[0] = 'X'

	assert.Equal(t, "https://github.com/x", rec.String("url"))
	assert.Equal(t, "body", string(rec.Body()))
	assert.Equal(t, int64(1), rec.Int("order"))

	_, err = NewRecord("social", "x", map[string]any{"tags": []string{"a"}}, nil)
	require.Error(t, err)
}

func TestImageFields(t *testing.T) {
	reg := NewSchemaRegistry(map[string]config.SchemaConfig{
		"gallery": {Images: []string{"image"}},
		"blog":    {Fields: map[string]string{"cover": "image", "date": "date"}},
		"social":  {},
	})
	assert.Equal(t, map[string][]string{"gallery": {"image"}, "blog": {"cover"}}, reg.ImageFields())
}
