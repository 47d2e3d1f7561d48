// Package markup converts markdown bodies into render-ready HTML.
package markup

import (
	"bytes"
	"html/template"
	"math"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

const wordsPerMinute = 200

// ResolvedImage is what an ImageLookup knows about a local image.
type ResolvedImage struct {
	URL    string
	Width  int
	Height int
}

// ImageLookup maps an asset path (relative to the asset directory) to its published variant.
type ImageLookup func(assetPath string) (ResolvedImage, bool)

// Options controls a conversion.
type Options struct {
	// ImageMaxWidth caps the declared width of every emitted <img>; 0 disables the cap.
	ImageMaxWidth int
	// Images resolves local image sources. When nil, local sources are left untouched;
	// when set, an unknown local source is an error.
	Images      ImageLookup
	Sanitize    bool
	Typographer bool
}

// Heading is one section heading with its generated anchor id.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Image is one <img> in the output, after rewriting.
type Image struct {
	Src    string
	Alt    string
	Width  int
	Height int
}

// Output is the converted body.
type Output struct {
	HTML        template.HTML
	Headings    []Heading
	Images      []Image
	Summary     string
	WordCount   int
	ReadingTime int
}

// Transform converts a markdown body. The result depends only on body and opts.
func Transform(body []byte, opts Options) (Output, error) {
	if !utf8.Valid(body) {
		return Output{}, &ParseError{Reason: "body is not valid UTF-8"}
	}
	if bytes.IndexByte(body, 0) >= 0 {
		return Output{}, &ParseError{Reason: "body contains NUL bytes"}
	}

	md := newConverter(opts)
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))
	headings := collectHeadings(root, body)

	var rendered bytes.Buffer
	if err := md.Renderer().Render(&rendered, body, root); err != nil {
		return Output{}, &ParseError{Reason: "render markdown", Err: err}
	}

	post, err := postProcess(rendered.Bytes(), opts)
	if err != nil {
		return Output{}, err
	}
	out := post.html
	if opts.Sanitize {
		out = sanitize(out)
	}

	return Output{
		HTML:        template.HTML(out), //nolint:gosec // produced by the markdown renderer, optionally sanitized
		Headings:    headings,
		Images:      post.images,
		Summary:     summarize(post.firstParagraph),
		WordCount:   post.words,
		ReadingTime: int(math.Ceil(float64(post.words) / wordsPerMinute)),
	}, nil
}

func newConverter(opts Options) goldmark.Markdown {
	exts := []goldmark.Extender{extension.GFM}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
}

func collectHeadings(root gmast.Node, source []byte) []Heading {
	var out []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		h, ok := n.(*gmast.Heading)
		if !entering || !ok {
			return gmast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: nodeText(h, source)}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.ID = string(b)
			}
		}
		out = append(out, heading)
		return gmast.WalkSkipChildren, nil
	})
	return out
}

func nodeText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
