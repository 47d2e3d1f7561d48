package compose

import (
	"html/template"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/markup"
)

// Page describes the page being rendered.
type Page struct {
	Name        string
	Template    string
	Path        string
	URL         string
	Title       string
	Description string
}

// PageContext is everything one template execution may read. It is built fresh
// for each page and not modified afterwards.
type PageContext struct {
	Site    config.SiteMetadata
	Page    Page
	Records map[string][]content.Record
	// Assets holds the page's named assets.
	Assets map[string]assets.Resolved
	// Media holds resolved images referenced by record fields, keyed by asset path.
	Media map[string]assets.Resolved
	// Bodies holds the converted bodies of the records in Records.
	Bodies Bodies
	// Links maps record keys in Records to their collection page paths.
	Links map[string]string
	// Record and Body are set on collection pages.
	Record *content.Record
	Body   *markup.Output
}

// Get returns the records of typ.
func (c *PageContext) Get(typ string) []content.Record {
	return c.Records[typ]
}

// Asset returns a named page asset.
func (c *PageContext) Asset(name string) (assets.Resolved, bool) {
	a, ok := c.Assets[name]
	return a, ok
}

// Image returns the resolved variant of an asset path referenced by a record field.
func (c *PageContext) Image(path string) (assets.Resolved, bool) {
	a, ok := c.Media[path]
	return a, ok
}

// HTML returns the converted body of a collection page.
func (c *PageContext) HTML() template.HTML {
	if c.Body == nil {
		return ""
	}
	return c.Body.HTML
}

// URL returns the path of rec's collection page, or "" when it has none.
func (c *PageContext) URL(rec content.Record) string {
	return c.Links[rec.Key()]
}

// Summary returns the plain-text summary of a record's body.
func (c *PageContext) Summary(rec content.Record) string {
	if b := c.Bodies[rec.Key()]; b != nil {
		return b.Summary
	}
	return rec.String("description")
}

// AllAssets lists every resolved asset the context embeds.
func (c *PageContext) AllAssets() []assets.Resolved {
	out := make([]assets.Resolved, 0, len(c.Assets)+len(c.Media))
	for _, a := range c.Assets {
		out = append(out, a)
	}
	for _, a := range c.Media {
		out = append(out, a)
	}
	return out
}
