// Package compose merges site metadata, records and resolved assets into the
// data context of a single page.
package compose

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

// NamePlaceholder is replaced by the record slug in collection page paths.
const NamePlaceholder = "{name}"

// LogoAsset is the page asset shown as the header brand image.
const LogoAsset = "logo"

// RecordSource is the read side of the content store.
type RecordSource interface {
	Records(typ string) []content.Record
}

// AssetIndex looks up references resolved during the Resolving stage.
type AssetIndex interface {
	Lookup(ref assets.Reference) (assets.Resolved, bool)
}

// Bodies maps record keys (type/name) to converted markdown bodies.
type Bodies map[string]*markup.Output

// Compose builds the context for spec. It never mutates its inputs and returns a
// MissingDependencyError when a mandatory record type is empty or a named asset
// was not resolved.
func Compose(site config.SiteMetadata, store RecordSource, idx AssetIndex, spec config.PageSpec) (*PageContext, error) {
	return compose(site, store, idx, spec, nil, nil)
}

// ComposeAll composes every page in specs order. Collection pages expand into
// one context per record of their Each type, in store order.
func ComposeAll(site config.SiteMetadata, store RecordSource, idx AssetIndex, specs []config.PageSpec, bodies Bodies) ([]*PageContext, error) {
	links := RecordPaths(store, specs)
	var out []*PageContext
	for _, spec := range specs {
		if spec.Each == "" {
			pc, err := compose(site, store, idx, spec, bodies, links)
			if err != nil {
				return nil, err
			}
			out = append(out, pc)
			continue
		}
		for _, rec := range store.Records(spec.Each) {
			pc, err := composeRecord(site, store, idx, spec, rec, bodies, links)
			if err != nil {
				return nil, err
			}
			out = append(out, pc)
		}
	}
	return out, nil
}

// RecordPaths maps the key of every record that has a collection page to that
// page's path. The first collection declared for a type wins.
func RecordPaths(store RecordSource, specs []config.PageSpec) map[string]string {
	paths := make(map[string]string)
	for _, spec := range specs {
		if spec.Each == "" {
			continue
		}
		for _, rec := range store.Records(spec.Each) {
			if _, ok := paths[rec.Key()]; !ok {
				paths[rec.Key()] = recordPath(spec.Path, rec)
			}
		}
	}
	return paths
}

func recordPath(pattern string, rec content.Record) string {
	return normalizePath(strings.ReplaceAll(pattern, NamePlaceholder, Slug(rec.Name)))
}

func composeRecord(site config.SiteMetadata, store RecordSource, idx AssetIndex, spec config.PageSpec, rec content.Record, bodies Bodies, links map[string]string) (*PageContext, error) {
	spec.Path = recordPath(spec.Path, rec)
	if spec.Title == "" {
		spec.Title = rec.Title()
	}
	if d := rec.String("description"); d != "" && spec.Description == "" {
		spec.Description = d
	}
	pc, err := compose(site, store, idx, spec, bodies, links)
	if err != nil {
		return nil, err
	}
	pc.Record = &rec
	pc.Body = bodies[rec.Key()]
	pc.addMedia(idx, rec)
	return pc, nil
}

func compose(site config.SiteMetadata, store RecordSource, idx AssetIndex, spec config.PageSpec, bodies Bodies, links map[string]string) (*PageContext, error) {
	pc := &PageContext{
		Site:    site.Clone(),
		Page:    pageFor(site, spec),
		Records: make(map[string][]content.Record, len(spec.Requires)),
		Assets:  make(map[string]assets.Resolved, len(spec.Assets)),
		Media:   make(map[string]assets.Resolved),
		Bodies:  make(Bodies),
		Links:   make(map[string]string),
	}

	for _, req := range spec.Requires {
		recs := store.Records(req.Type)
		if len(recs) == 0 && !req.Optional {
			return nil, &MissingDependencyError{Page: spec.Name, Kind: "records", Name: req.Type}
		}
		recs = selectRecords(recs, req)
		pc.Records[req.Type] = recs
		for _, rec := range recs {
			pc.addMedia(idx, rec)
			if b, ok := bodies[rec.Key()]; ok {
				pc.Bodies[rec.Key()] = b
			}
		}
	}

	for _, a := range spec.Assets {
		ref, err := ReferenceFor(a)
		if err != nil {
			return nil, fmt.Errorf("page %q asset %q: %w", spec.Name, a.Name, err)
		}
		res, ok := idx.Lookup(ref)
		if !ok {
			return nil, &MissingDependencyError{Page: spec.Name, Kind: "asset", Name: a.Name}
		}
		pc.Assets[a.Name] = res
	}
	if logo, ok := SiteLogo(site); ok {
		if _, declared := pc.Assets[LogoAsset]; !declared {
			ref, _ := ReferenceFor(logo)
			res, ok := idx.Lookup(ref)
			if !ok {
				return nil, &MissingDependencyError{Page: spec.Name, Kind: "asset", Name: LogoAsset}
			}
			pc.Assets[LogoAsset] = res
		}
	}
	for _, recs := range pc.Records {
		for _, rec := range recs {
			if p, ok := links[rec.Key()]; ok {
				pc.Links[rec.Key()] = p
			}
		}
	}
	return pc, nil
}

// SiteLogo returns the header logo declared in the site metadata, if any.
func SiteLogo(site config.SiteMetadata) (config.AssetSpec, bool) {
	if site.Logo == "" {
		return config.AssetSpec{}, false
	}
	return config.AssetSpec{Name: LogoAsset, Path: site.Logo, Width: 35, Height: 35}, true
}

// addMedia attaches every resolved plain reference named by a field of rec.
func (c *PageContext) addMedia(idx AssetIndex, rec content.Record) {
	for _, name := range rec.FieldNames() {
		v, ok := rec.Field(name).(string)
		if !ok || v == "" {
			continue
		}
		if res, ok := idx.Lookup(assets.Reference{Path: v}); ok {
			c.Media[assets.Reference{Path: v}.Clean().Path] = res
		}
	}
}

// ReferenceFor converts a configured page asset into a resolver reference.
func ReferenceFor(a config.AssetSpec) (assets.Reference, error) {
	fit, err := assets.ParseFit(a.Fit)
	if err != nil {
		return assets.Reference{}, err
	}
	return assets.Reference{Path: a.Path, Width: a.Width, Height: a.Height, Quality: a.Quality, Fit: fit}, nil
}

func pageFor(site config.SiteMetadata, spec config.PageSpec) Page {
	p := Page{
		Name:        spec.Name,
		Template:    spec.Template,
		Path:        normalizePath(spec.Path),
		Title:       spec.Title,
		Description: spec.Description,
	}
	if p.Template == "" {
		p.Template = spec.Name
	}
	if p.Title == "" {
		p.Title = site.Title
	}
	if p.Description == "" {
		p.Description = site.Description
	}
	p.URL = site.AbsURL(p.Path)
	return p
}

// normalizePath returns a slash-rooted path; directory-style paths end in "/".
func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	last := p[strings.LastIndex(p, "/")+1:]
	if last != "" && !strings.Contains(last, ".") {
		p += "/"
	}
	return p
}

func selectRecords(recs []content.Record, req config.Requirement) []content.Record {
	recs = slices.Clone(recs)
	if req.SortBy != "" {
		desc := strings.EqualFold(req.Order, "desc")
		slices.SortStableFunc(recs, func(a, b content.Record) int {
			c := compareValues(a.Field(req.SortBy), b.Field(req.SortBy))
			if desc {
				return -c
			}
			return c
		})
	}
	if req.Limit > 0 && len(recs) > req.Limit {
		recs = recs[:req.Limit]
	}
	return recs
}

// compareValues orders scalars of the same kind; missing values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmp.Compare(av, bv)
		case float64:
			return cmp.Compare(float64(av), bv)
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return cmp.Compare(av, bv)
		case int64:
			return cmp.Compare(av, float64(bv))
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Slug converts a record name into a URL path segment.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
