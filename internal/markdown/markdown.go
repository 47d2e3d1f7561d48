// Package markdown analyses markdown bodies without rendering them.
package markdown

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// analysis uses the same extensions as rendering so tables and autolinks parse alike.
var analysis = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ParseBody parses a markdown body (front matter already removed) into a goldmark AST.
func ParseBody(body []byte) (gmast.Node, parser.Context) {
	ctx := parser.NewContext()
	root := analysis.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))
	return root, ctx
}

// ExtractLinks returns every link-like construct in document order, followed by
// reference definitions sorted by label.
func ExtractLinks(body []byte) []Link {
	root, ctx := ParseBody(body)

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{
				Kind:        LinkKindImage,
				Destination: string(node.Destination),
				Title:       string(node.Title),
				Alt:         plainText(node, body),
			})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination), Title: string(node.Title)})
		}
		return gmast.WalkContinue, nil
	})

	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links
}

// LocalImages returns the asset paths of images stored alongside the site, deduplicated,
// in first-seen order.
func LocalImages(body []byte) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range ExtractLinks(body) {
		if l.Kind != LinkKindImage || !IsLocal(l.Destination) {
			continue
		}
		p := AssetPath(l.Destination)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func plainText(n gmast.Node, source []byte) string {
	var buf []byte
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*gmast.Text); ok {
				buf = append(buf, t.Segment.Value(source)...)
			}
		}
		return gmast.WalkContinue, nil
	})
	return string(buf)
}
