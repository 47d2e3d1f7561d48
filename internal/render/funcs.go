package render

import (
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/assets"
	"git.home.luguber.info/inful/sitebuilder/internal/compose"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// SocialType is the content type whose records feed the social link list.
const SocialType = "social"

func funcMap(now time.Time) template.FuncMap {
	return template.FuncMap{
		"asset":       assetFunc,
		"image":       imageFunc,
		"absURL":      func(pc *compose.PageContext, p string) string { return pc.Site.AbsURL(p) },
		"fontsURL":    func(site config.SiteMetadata) string { return site.FontsURL() },
		"bodyFont":    bodyFont,
		"socialLinks": socialLinks,
		"socialIcon":  socialIcon,
		"without":     without,
		"youtube":     youtubeEmbed,
		"slug":        compose.Slug,
		"join":        strings.Join,
		"lang":        func(l string) string { return strings.ReplaceAll(l, "_", "-") },
		"year":        func() int { return now.Year() },
	}
}

// assetFunc returns a named page asset or nil when the page declares none.
func assetFunc(pc *compose.PageContext, name string) *assets.Resolved {
	if a, ok := pc.Asset(name); ok {
		return &a
	}
	return nil
}

// imageFunc returns the resolved image for a record field value. Empty values yield nil;
// values that were never resolved are an error.
func imageFunc(pc *compose.PageContext, p string) (*assets.Resolved, error) {
	if p == "" {
		return nil, nil
	}
	a, ok := pc.Image(assets.Reference{Path: p}.Clean().Path)
	if !ok {
		return nil, fmt.Errorf("image %q was not resolved", p)
	}
	return &a, nil
}

func bodyFont(site config.SiteMetadata) string {
	if len(site.Fonts) > 0 {
		return site.Fonts[len(site.Fonts)-1].Family
	}
	return "system-ui"
}

// socialLinks lists social records followed by links configured on the site.
func socialLinks(pc *compose.PageContext) []config.SocialLink {
	var out []config.SocialLink
	for _, rec := range pc.Get(SocialType) {
		out = append(out, config.SocialLink{Name: rec.Name, URL: rec.String("url")})
	}
	return append(out, pc.Site.Social...)
}

// without drops links whose name matches any of names, ignoring case.
func without(links []config.SocialLink, names ...string) []config.SocialLink {
	return slices.DeleteFunc(slices.Clone(links), func(l config.SocialLink) bool {
		return slices.ContainsFunc(names, func(n string) bool { return strings.EqualFold(n, l.Name) })
	})
}

var knownIcons = []string{"github", "youtube", "twitter", "instagram", "linkedin", "facebook", "mastodon", "vimeo"}

// socialIcon maps a link name to an icon identifier.
func socialIcon(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, icon := range knownIcons {
		if strings.Contains(n, icon) {
			return icon
		}
	}
	if strings.Contains(n, "mail") {
		return "mail"
	}
	return "link"
}

// youtubeEmbed turns a video id or YouTube URL into an embeddable player URL.
func youtubeEmbed(v string) string {
	const prefix = "https://www.youtube.com/embed/"
	v = strings.TrimSpace(v)
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return prefix + url.PathEscape(v)
	}
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		return prefix + strings.Trim(u.Path, "/")
	case u.Query().Get("v") != "":
		return prefix + u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/embed/"):
		return prefix + strings.TrimPrefix(u.Path, "/embed/")
	}
	return v
}
