// Package assets resolves media references to build output files, resizing raster
// images on the way.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/webp" // register the webp decoder with image.Decode
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// DefaultURLPrefix is where processed assets are published within the site.
const DefaultURLPrefix = "/static"

// Resolved is a reference materialized in the output directory.
type Resolved struct {
	Ref Reference
	// Source is the absolute path of the original file.
	Source string
	// OutputPath is the site-relative URL path, e.g. /static/logo-1a2b3c4d5e6f-35x35.png.
	OutputPath string
	Width      int
	Height     int
	Format     string
	Bytes      int64
	// Hash is the sha256 of the source file.
	Hash string
}

// File returns the output file path relative to the site root.
func (r Resolved) File() string {
	return filepath.FromSlash(strings.TrimPrefix(r.OutputPath, "/"))
}

// Options configures a Resolver.
type Options struct {
	SourceDir string
	OutputDir string
	URLPrefix string
	// MaxWidth clamps the width of every raster variant; 0 disables the clamp.
	MaxWidth int
	// Quality is the default JPEG quality.
	Quality  int
	Recorder metrics.Recorder
}

// Resolver turns references into files under OutputDir. It is safe for concurrent use;
// results are cached per reference key for the resolver's lifetime (one build).
type Resolver struct {
	opts  Options
	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]Resolved
}

// NewResolver creates a resolver.
func NewResolver(opts Options) *Resolver {
	if opts.URLPrefix == "" {
		opts.URLPrefix = DefaultURLPrefix
	}
	opts.URLPrefix = "/" + strings.Trim(opts.URLPrefix, "/")
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	return &Resolver{opts: opts, cache: make(map[string]Resolved)}
}

// Resolve materializes ref. Resolving the same reference again returns the
// identical result without touching the filesystem.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (Resolved, error) {
	ref = ref.Clean()
	key := ref.Key()
	if res, ok := r.lookup(key); ok {
		r.opts.Recorder.IncAssetResolved("cached")
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return Resolved{}, err
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if res, ok := r.lookup(key); ok {
			return res, nil
		}
		res, err := r.process(ref)
		if err != nil {
			return Resolved{}, err
		}
		r.mu.Lock()
		r.cache[key] = res
		r.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return Resolved{}, err
	}
	return v.(Resolved), nil
}

// Lookup returns an already resolved reference.
func (r *Resolver) Lookup(ref Reference) (Resolved, bool) {
	return r.lookup(ref.Key())
}

func (r *Resolver) lookup(key string) (Resolved, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.cache[key]
	return res, ok
}

// Manifest lists every variant produced so far.
func (r *Resolver) Manifest() *manifest.AssetManifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]manifest.AssetEntry, 0, len(r.cache))
	for key, res := range r.cache {
		entries = append(entries, manifest.AssetEntry{
			Key:    key,
			Source: res.Ref.Path,
			Output: res.OutputPath,
			Width:  res.Width,
			Height: res.Height,
			Format: res.Format,
			Bytes:  res.Bytes,
			Hash:   res.Hash,
		})
	}
	return manifest.NewAssetManifest(entries)
}

func (r *Resolver) process(ref Reference) (Resolved, error) {
	src := filepath.Join(r.opts.SourceDir, filepath.FromSlash(ref.Path))
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		if err == nil {
			err = fs.ErrNotExist
		}
		if errors.Is(err, fs.ErrNotExist) {
			return Resolved{}, &NotFoundError{Ref: ref, Source: r.opts.SourceDir, Err: err}
		}
		return Resolved{}, &ProcessError{Ref: ref, Op: "stat", Err: err}
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return Resolved{}, &ProcessError{Ref: ref, Op: "read", Err: err}
	}
	sum := sha256.Sum256(data)
	res := Resolved{Ref: ref, Source: src, Hash: hex.EncodeToString(sum[:])}

	ext := strings.ToLower(path.Ext(ref.Path))
	var out []byte
	kind := "copied"
	if format, raster := rasterFormats[ext]; raster {
		out, ext, err = r.processRaster(ref, data, format, &res)
		if err != nil {
			return Resolved{}, err
		}
		if len(out) == 0 {
			out = data
		} else {
			kind = "resized"
		}
	} else {
		out = data
		res.Format = strings.TrimPrefix(ext, ".")
	}

	name := r.outputName(ref, res, ext)
	res.OutputPath = r.opts.URLPrefix + "/" + name
	res.Bytes = int64(len(out))
	if err := r.write(res.File(), out); err != nil {
		return Resolved{}, &ProcessError{Ref: ref, Op: "write", Err: err}
	}
	r.opts.Recorder.IncAssetResolved(kind)
	slog.Debug("Resolved asset",
		logfields.Asset(ref.Path),
		logfields.Path(res.OutputPath),
		slog.Int("width", res.Width),
		slog.Int("height", res.Height))
	return res, nil
}

// outputName is content addressed: the hash covers source bytes and transform parameters.
func (r *Resolver) outputName(ref Reference, res Resolved, ext string) string {
	h := sha256.New()
	h.Write([]byte(res.Hash))
	h.Write([]byte(ref.Key()))
	fmt.Fprintf(h, "|max=%d|dq=%d", r.opts.MaxWidth, r.opts.Quality)
	digest := hex.EncodeToString(h.Sum(nil))[:12]

	dir, file := path.Split(ref.Path)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if res.Width > 0 && res.Height > 0 {
		return fmt.Sprintf("%s%s-%s-%dx%d%s", dir, stem, digest, res.Width, res.Height, ext)
	}
	return fmt.Sprintf("%s%s-%s%s", dir, stem, digest, ext)
}

func (r *Resolver) write(rel string, data []byte) error {
	dst := filepath.Join(r.opts.OutputDir, rel)
	if info, err := os.Stat(dst); err == nil && info.Size() == int64(len(data)) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".asset-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// decodeConfig reads dimensions without decoding pixels.
func decodeConfig(data []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	return cfg, err
}
