package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

var validFieldKinds = map[string]bool{
	"string": true, "int": true, "float": true, "bool": true,
	"image": true, "url": true, "date": true,
}

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Site.Title) == "" {
		errs = append(errs, errors.New("site.title is required"))
	}
	if c.Site.URL != "" {
		if u, err := url.Parse(c.Site.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("site.url must be an absolute URL: %q", c.Site.URL))
		}
	}
	if c.Site.FormEndpoint != "" {
		if u, err := url.Parse(c.Site.FormEndpoint); err != nil || u.Scheme == "" {
			errs = append(errs, fmt.Errorf("site.form_endpoint must be an absolute URL: %q", c.Site.FormEndpoint))
		}
	}
	if c.Images.Quality > 100 {
		errs = append(errs, fmt.Errorf("images.quality must be between 1 and 100, got %d", c.Images.Quality))
	}
	for _, b := range c.Transforms {
		s := strings.ToLower(strings.TrimSpace(b.Stage))
		if s != "" && s != TransformStageResolving && s != TransformStageTransforming {
			errs = append(errs, fmt.Errorf("transforms: unknown stage %q", b.Stage))
		}
	}
	errs = append(errs, c.validateSchemas()...)
	errs = append(errs, c.validatePages()...)

	if len(errs) == 0 {
		return nil
	}
	return ferrors.WrapError(errors.Join(errs...), ferrors.CategoryValidation, "invalid configuration").
		Fatal().
		Build()
}

func (c *Config) validateSchemas() []error {
	var errs []error
	for typ, s := range c.Schemas {
		for field, kind := range s.Fields {
			if !validFieldKinds[kind] {
				errs = append(errs, fmt.Errorf("schemas.%s.fields.%s: unknown kind %q", typ, field, kind))
			}
		}
		for field, target := range s.References {
			refType, _, _ := strings.Cut(target, ".")
			if refType == "" {
				errs = append(errs, fmt.Errorf("schemas.%s.references.%s: empty target", typ, field))
			}
		}
	}
	return errs
}

func (c *Config) validatePages() []error {
	var errs []error
	if len(c.Pages) == 0 {
		errs = append(errs, errors.New("at least one page must be declared"))
	}
	names := make(map[string]bool, len(c.Pages))
	paths := make(map[string]string, len(c.Pages))
	for i, p := range c.Pages {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("pages[%d]: name is required", i))
			continue
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("pages[%d]: duplicate page name %q", i, p.Name))
		}
		names[p.Name] = true
		if !strings.HasPrefix(p.Path, "/") {
			errs = append(errs, fmt.Errorf("page %q: path must start with '/', got %q", p.Name, p.Path))
		}
		if p.Each != "" && !strings.Contains(p.Path, "{name}") {
			errs = append(errs, fmt.Errorf("page %q: collection path must contain {name}", p.Name))
		}
		if other, ok := paths[p.Path]; ok {
			errs = append(errs, fmt.Errorf("page %q: path %s already used by %q", p.Name, p.Path, other))
		}
		paths[p.Path] = p.Name
		for _, r := range p.Requires {
			if r.Type == "" {
				errs = append(errs, fmt.Errorf("page %q: requirement without type", p.Name))
			}
			if o := strings.ToLower(r.Order); o != "" && o != "asc" && o != "desc" {
				errs = append(errs, fmt.Errorf("page %q: order must be asc or desc, got %q", p.Name, r.Order))
			}
		}
		for _, a := range p.Assets {
			if a.Name == "" || a.Path == "" {
				errs = append(errs, fmt.Errorf("page %q: assets need name and path", p.Name))
			}
		}
	}
	return errs
}

// ValidatePaths rejects an output directory that would replace the project or
// any of its inputs. Relative paths are resolved against baseDir.
func (c *Config) ValidatePaths(baseDir string) error {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to resolve base directory").
			WithContext("dir", baseDir).
			Build()
	}
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	output := abs(c.Paths.Output)
	if within(output, base) {
		return ferrors.ConfigError(fmt.Sprintf("paths.output %q must not contain the project directory", c.Paths.Output)).
			WithContext("output", output).
			Build()
	}

	inputs := make(map[string]string)
	for i, p := range c.Paths.Content {
		inputs[fmt.Sprintf("paths.content[%d]", i)] = p
	}
	inputs["paths.assets"] = c.Paths.Assets
	inputs["paths.layouts"] = c.Paths.Layouts
	inputs["paths.static"] = c.Paths.Static

	var errs []error
	for key, p := range inputs {
		if p == "" {
			continue
		}
		in := abs(p)
		if within(output, in) || within(in, output) {
			errs = append(errs, fmt.Errorf("paths.output %q overlaps %s %q", c.Paths.Output, key, p))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
	return ferrors.WrapError(errors.Join(errs...), ferrors.CategoryConfig, "output directory overlaps build inputs").
		WithContext("output", output).
		Build()
}

// within reports whether child is parent or lies below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
