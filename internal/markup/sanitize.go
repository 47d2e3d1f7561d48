package markup

import (
	"regexp"
	"sync"

	bm "github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bm.Policy
)

// youtubeEmbed matches the embed URLs produced by the video partial and by authors
// pasting YouTube's share snippet.
var youtubeEmbed = regexp.MustCompile(`^https://www\.(youtube|youtube-nocookie)\.com/embed/[A-Za-z0-9_-]+(\?[^"]*)?$`)

func sanitizer() *bm.Policy {
	policyOnce.Do(func() {
		p := bm.UGCPolicy()
		p.AllowAttrs("loading", "decoding").OnElements("img")
		p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
		p.AllowAttrs("src").Matching(youtubeEmbed).OnElements("iframe")
		p.AllowAttrs("width", "height", "title", "allow", "allowfullscreen", "loading", "frameborder").OnElements("iframe")
		p.AllowStyles("max-width").OnElements("img")
		policy = p
	})
	return policy
}

func sanitize(in []byte) []byte {
	return sanitizer().SanitizeBytes(in)
}
