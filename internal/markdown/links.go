package markdown

import (
	"net/url"
	"strings"
)

// LinkKind identifies how a link-like construct appeared in the source.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is one destination found in a markdown body.
type Link struct {
	Kind        LinkKind
	Destination string
	Title       string
	// Alt is the image alt text (images only).
	Alt string
}

// IsLocal reports whether dest points into the site's own files rather than an
// external URL, a fragment or a data URI.
func IsLocal(dest string) bool {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// AssetPath strips query and fragment from a local destination, decodes percent
// escapes and makes it relative to the asset root. Destinations that are not
// valid escapes are used as written.
func AssetPath(dest string) string {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	if unescaped, err := url.PathUnescape(dest); err == nil {
		dest = unescaped
	}
	dest = strings.TrimPrefix(strings.TrimSpace(dest), "./")
	return strings.TrimLeft(dest, "/")
}
