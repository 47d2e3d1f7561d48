package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// TypeField overrides the type inferred from a file's location.
const TypeField = "type"

// PageType is the type of markdown files placed directly in a content root.
const PageType = "page"

var titleCaser = cases.Title(language.English)

// rawRecord is a decoded record before schema validation.
type rawRecord struct {
	typ      string
	fields   map[string]any
	body     []byte
	source   string
	// slug is the fallback key: the file stem for markdown, the path below the
	// content root without extension for data files.
	slug     string
	index    int
	markdown bool
}

// Load reads every content file under dirs into a Store.
//
// Directories are visited in the order given and files in lexical order, so record
// order within a type is deterministic. Supported sources are JSON and YAML files
// (a single object or a list of objects) and markdown files with YAML front matter.
func Load(ctx context.Context, dirs []string, schemas *SchemaRegistry) (*Store, error) {
	b := newStoreBuilder(schemas)
	for _, dir := range dirs {
		if err := loadDir(ctx, dir, b); err != nil {
			return nil, err
		}
	}
	return b.finish()
}

func loadDir(ctx context.Context, root string, b *storeBuilder) error {
	info, err := os.Stat(root)
	if err != nil {
		return &LoadError{Path: root, Reason: "content directory unavailable", Err: err}
	}
	if !info.IsDir() {
		return &LoadError{Path: root, Reason: "content path is not a directory"}
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &LoadError{Path: path, Reason: "walk failed", Err: walkErr}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return &LoadError{Path: path, Reason: "relative path", Err: err}
		}
		recs, err := decodeFile(path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if recs == nil {
			slog.Debug("Skipping unsupported content file", logfields.Path(path))
			return nil
		}
		for _, r := range recs {
			if err := b.add(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeFile(path, rel string) ([]rawRecord, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var decode func(path, rel string, data []byte) ([]rawRecord, error)
	switch ext {
	case ".json":
		decode = decodeJSON
	case ".yaml", ".yml":
		decode = decodeYAML
	case ".md", ".markdown":
		decode = decodeMarkdown
	default:
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "read failed", Err: err}
	}
	return decode(path, rel, data)
}

func decodeJSON(path, rel string, data []byte) ([]rawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Path: path, Reason: "malformed JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &LoadError{Path: path, Reason: "malformed JSON", Err: errors.New("trailing data after document")}
	}
	return recordsFromDocument(path, rel, doc)
}

func decodeYAML(path, rel string, data []byte) ([]rawRecord, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Reason: "malformed YAML", Err: err}
	}
	if doc == nil {
		return []rawRecord{}, nil
	}
	return recordsFromDocument(path, rel, doc)
}

func recordsFromDocument(path, rel string, doc any) ([]rawRecord, error) {
	stem := fileStem(rel)
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	var items []any
	switch d := doc.(type) {
	case map[string]any:
		items = []any{d}
	case []any:
		items = d
	default:
		return nil, &LoadError{Path: path, Reason: fmt.Sprintf("expected an object or a list of objects, got %T", doc)}
	}
	out := make([]rawRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &LoadError{Path: path, Reason: fmt.Sprintf("item %d is not an object", i)}
		}
		fields, err := scalarFields(obj)
		if err != nil {
			return nil, &LoadError{Path: path, Reason: fmt.Sprintf("item %d", i), Err: err}
		}
		out = append(out, rawRecord{typ: stem, fields: fields, source: path, slug: base, index: i})
	}
	return out, nil
}

func decodeMarkdown(path, rel string, data []byte) ([]rawRecord, error) {
	fm, body, _, err := frontmatter.Split(data)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "malformed front matter", Err: err}
	}
	obj, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "malformed front matter", Err: err}
	}
	fields, err := scalarFields(obj)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "front matter", Err: err}
	}
	typ := PageType
	if dir, _, ok := strings.Cut(rel, "/"); ok {
		typ = dir
	}
	slug := fileStem(rel)
	if slug == "index" && strings.Contains(rel, "/") {
		slug = filepath.Base(filepath.Dir(rel))
	}
	if _, ok := fields["title"]; !ok {
		fields["title"] = titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	}
	return []rawRecord{{typ: typ, fields: fields, body: body, source: path, slug: slug, markdown: true}}, nil
}

func scalarFields(obj map[string]any) (map[string]any, error) {
	fields := make(map[string]any, len(obj))
	for k, v := range obj {
		s, err := normalizeScalar(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		if s != nil {
			fields[k] = s
		}
	}
	return fields, nil
}

func fileStem(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
