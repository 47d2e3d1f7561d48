package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// SiteMetadata is the global descriptive record of the site. It is loaded once and
// handed to the composer by value; Clone detaches the slice fields.
type SiteMetadata struct {
	Title        string            `yaml:"title"`
	ShortTitle   string            `yaml:"short_title,omitempty"`
	Description  string            `yaml:"description"`
	Author       string            `yaml:"author"`
	URL          string            `yaml:"url"`
	Language     string            `yaml:"language"`
	Keywords     []string          `yaml:"keywords,omitempty"`
	FormEndpoint string            `yaml:"form_endpoint,omitempty"`
	Email        string            `yaml:"email,omitempty"`
	Location     string            `yaml:"location,omitempty"`
	Logo         string            `yaml:"logo,omitempty"`
	Social       []SocialLink      `yaml:"social,omitempty"`
	Manifest     WebManifestConfig `yaml:"manifest,omitempty"`
	Fonts        []FontConfig      `yaml:"fonts,omitempty"`
}

// WebManifestConfig describes the generated manifest.webmanifest.
type WebManifestConfig struct {
	Enabled         bool   `yaml:"enabled"`
	StartURL        string `yaml:"start_url,omitempty"`
	BackgroundColor string `yaml:"background_color,omitempty"`
	ThemeColor      string `yaml:"theme_color,omitempty"`
	Display         string `yaml:"display,omitempty"`
	Icon            string `yaml:"icon,omitempty"`
}

// SocialLink is a profile link rendered in the header or footer.
type SocialLink struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FontConfig names one web font family and the weights to request.
type FontConfig struct {
	Family  string   `yaml:"family"`
	Weights []string `yaml:"weights,omitempty"`
}

// Clone returns a copy that shares no mutable state with s.
func (s SiteMetadata) Clone() SiteMetadata {
	s.Keywords = slices.Clone(s.Keywords)
	s.Social = slices.Clone(s.Social)
	fonts := make([]FontConfig, len(s.Fonts))
	for i, f := range s.Fonts {
		fonts[i] = FontConfig{Family: f.Family, Weights: slices.Clone(f.Weights)}
	}
	if s.Fonts == nil {
		fonts = nil
	}
	s.Fonts = fonts
	return s
}

// AbsURL joins a site-relative path onto the base URL.
func (s SiteMetadata) AbsURL(path string) string {
	if s.URL == "" {
		return path
	}
	base, err := url.Parse(strings.TrimRight(s.URL, "/") + "/")
	if err != nil {
		return path
	}
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return path
	}
	return base.ResolveReference(ref).String()
}

// FontsURL builds the Google Fonts stylesheet URL for the configured families, or "" when none.
func (s SiteMetadata) FontsURL() string {
	if len(s.Fonts) == 0 {
		return ""
	}
	q := url.Values{}
	for _, f := range s.Fonts {
		family := strings.ReplaceAll(f.Family, " ", "+")
		if len(f.Weights) > 0 {
			family = fmt.Sprintf("%s:wght@%s", family, strings.Join(f.Weights, ";"))
		}
		q.Add("family", family)
	}
	q.Set("display", "swap")
	// url.Values escapes '+', ':' and '@'; the fonts API expects them literally.
	enc := strings.NewReplacer("%2B", "+", "%3A", ":", "%40", "@", "%3B", ";").Replace(q.Encode())
	return "https://fonts.googleapis.com/css2?" + enc
}
