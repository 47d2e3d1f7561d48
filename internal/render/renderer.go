// Package render executes page templates against composed page contexts and writes
// the resulting HTML into the output directory.
package render

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

//go:embed theme
var themeFS embed.FS

// BaseTemplate is the layout every page template builds on.
const BaseTemplate = "base"

// Options configures a Renderer.
type Options struct {
	// OutputDir receives the rendered pages; assets must already be materialized here.
	OutputDir string
	// LayoutsDir optionally holds user templates: partials/*.html override theme
	// partials, base.html replaces the layout and other *.html files add or replace pages.
	LayoutsDir string
	// Now returns the build time used by the year template function.
	Now func() time.Time
}

// Artifact is one written output file.
type Artifact struct {
	// Path is relative to the output directory, slash separated.
	Path  string
	Bytes int64
	Hash  string
}

// Renderer owns the parsed template set. It is safe for concurrent use once created.
type Renderer struct {
	opts  Options
	pages map[string]*template.Template
}

// New parses the embedded theme followed by any user layouts.
func New(opts Options) (*Renderer, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("render: output directory is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	root := template.New("site").Funcs(funcMap(opts.Now()))

	theme, err := fs.Sub(themeFS, "theme")
	if err != nil {
		return nil, err
	}
	sources := []fs.FS{theme}
	if opts.LayoutsDir != "" {
		if info, statErr := os.Stat(opts.LayoutsDir); statErr == nil && info.IsDir() {
			sources = append(sources, os.DirFS(opts.LayoutsDir))
		} else if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			return nil, statErr
		}
	}

	pageSrc := make(map[string]string)
	for _, src := range sources {
		if err := parseLayouts(root, src, pageSrc); err != nil {
			return nil, err
		}
	}

	r := &Renderer{opts: opts, pages: make(map[string]*template.Template, len(pageSrc))}
	for name, body := range pageSrc {
		t, err := root.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.New(name).Parse(body); err != nil {
			return nil, &Error{Template: name, Op: "parse", Err: err}
		}
		r.pages[name] = t
	}
	slog.Debug("Templates parsed", logfields.Count(len(r.pages)))
	return r, nil
}

// parseLayouts adds base.html and partials from fsys to root and collects page sources.
// Later sources replace earlier definitions with the same name.
func parseLayouts(root *template.Template, fsys fs.FS, pages map[string]string) error {
	read := func(name string) (string, error) {
		b, err := fs.ReadFile(fsys, name)
		return string(b), err
	}

	if body, err := read("base.html"); err == nil {
		if _, err := root.New("base.html").Parse(body); err != nil {
			return &Error{Template: BaseTemplate, Op: "parse", Err: err}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	partials, err := fs.Glob(fsys, "partials/*.html")
	if err != nil {
		return err
	}
	for _, p := range partials {
		body, err := read(p)
		if err != nil {
			return err
		}
		if _, err := root.New(p).Parse(body); err != nil {
			return &Error{Template: p, Op: "parse", Err: err}
		}
	}

	for _, pattern := range []string{"pages/*.html", "*.html"} {
		files, err := fs.Glob(fsys, pattern)
		if err != nil {
			return err
		}
		for _, f := range files {
			name := strings.TrimSuffix(path.Base(f), ".html")
			if name == BaseTemplate {
				continue
			}
			body, err := read(f)
			if err != nil {
				return err
			}
			pages[name] = body
		}
	}
	return nil
}

// Templates lists the available page templates.
func (r *Renderer) Templates() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template for pc and writes the page. The same context
// always produces the same bytes.
func (r *Renderer) Render(pc *compose.PageContext, name string) (Artifact, error) {
	fail := func(op string, err error) (Artifact, error) {
		return Artifact{}, &Error{Page: pc.Page.Name, Template: name, Op: op, Err: err}
	}

	t, ok := r.pages[name]
	if !ok {
		return fail("lookup", fmt.Errorf("template %q not found (available: %s)", name, strings.Join(r.Templates(), ", ")))
	}
	for _, a := range pc.AllAssets() {
		if _, err := os.Stat(filepath.Join(r.opts.OutputDir, a.File())); err != nil {
			return fail("verify asset "+a.OutputPath, err)
		}
	}

	rel, err := OutputFile(pc.Page.Path)
	if err != nil {
		return fail("path", err)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, pc); err != nil {
		return fail("execute", err)
	}
	if err := writeFile(r.opts.OutputDir, rel, buf.Bytes()); err != nil {
		return fail("write", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return Artifact{Path: rel, Bytes: int64(buf.Len()), Hash: hex.EncodeToString(sum[:])}, nil
}

// OutputFile maps a page path to a slash-separated file path under the output directory.
func OutputFile(pagePath string) (string, error) {
	clean := path.Clean("/" + pagePath)
	if strings.Contains(pagePath, "..") {
		return "", fmt.Errorf("page path %q must not contain '..'", pagePath)
	}
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || strings.HasSuffix(pagePath, "/") || path.Ext(rel) == "" {
		return path.Join(rel, "index.html"), nil
	}
	return rel, nil
}

// writeFile replaces dir/rel atomically: the content goes to a temporary file in the
// same directory which is synced and renamed over the target.
func writeFile(dir, rel string, data []byte) (err error) {
	dst := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".page-*")
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return err
	}
	// #nosec G302 -- rendered pages are public.
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
