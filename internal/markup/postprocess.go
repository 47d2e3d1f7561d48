package markup

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

const summaryLength = 200

type postResult struct {
	html           []byte
	images         []Image
	firstParagraph string
	words          int
}

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// postProcess rewrites <img> and <iframe> elements in rendered HTML and gathers text statistics.
func postProcess(rendered []byte, opts Options) (postResult, error) {
	nodes, err := html.ParseFragment(bytes.NewReader(rendered), bodyContext)
	if err != nil {
		return postResult{}, &ParseError{Reason: "parse rendered html", Err: err}
	}

	var res postResult
	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		switch {
		case n.Type == html.TextNode:
			res.words += len(strings.Fields(n.Data))
		case n.Type == html.ElementNode && n.DataAtom == atom.Img:
			img, err := rewriteImage(n, opts)
			if err != nil {
				return err
			}
			res.images = append(res.images, img)
		case n.Type == html.ElementNode && n.DataAtom == atom.Iframe:
			setDefaultAttr(n, "loading", "lazy")
		case n.Type == html.ElementNode && n.DataAtom == atom.P && res.firstParagraph == "":
			res.firstParagraph = strings.Join(strings.Fields(textContent(n)), " ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := walk(n); err != nil {
			return postResult{}, err
		}
		if err := html.Render(&buf, n); err != nil {
			return postResult{}, &ParseError{Reason: "render html", Err: err}
		}
	}
	res.html = buf.Bytes()
	return res, nil
}

func rewriteImage(n *html.Node, opts Options) (Image, error) {
	src := getAttr(n, "src")
	img := Image{Src: src, Alt: getAttr(n, "alt")}

	w, hasW, err := dimension(n, "width")
	if err != nil {
		return Image{}, err
	}
	h, hasH, err := dimension(n, "height")
	if err != nil {
		return Image{}, err
	}

	if opts.Images != nil && markdown.IsLocal(src) {
		resolved, ok := opts.Images(markdown.AssetPath(src))
		if !ok {
			return Image{}, &ParseError{Reason: fmt.Sprintf("image %q was not resolved", src)}
		}
		img.Src = resolved.URL
		setAttr(n, "src", resolved.URL)
		if !hasW && !hasH && resolved.Width > 0 && resolved.Height > 0 {
			w, h, hasW, hasH = resolved.Width, resolved.Height, true, true
		} else if hasW && !hasH && resolved.Width > 0 {
			h, hasH = int(math.Round(float64(resolved.Height)*float64(w)/float64(resolved.Width))), true
		}
	}

	if limit := opts.ImageMaxWidth; limit > 0 && hasW && w > limit {
		if hasH {
			h = int(math.Round(float64(h) * float64(limit) / float64(w)))
		}
		w = limit
	}
	if hasW {
		setAttr(n, "width", strconv.Itoa(w))
		img.Width = w
	}
	if hasH {
		setAttr(n, "height", strconv.Itoa(h))
		img.Height = h
	}
	if opts.ImageMaxWidth > 0 && !hasW {
		// Without a known width the cap is enforced through an inline style.
		setAttr(n, "style", appendStyle(getAttr(n, "style"), fmt.Sprintf("max-width:%dpx", opts.ImageMaxWidth)))
	}
	setDefaultAttr(n, "loading", "lazy")
	setDefaultAttr(n, "decoding", "async")
	return img, nil
}

// dimension parses a pixel attribute ("120" or "120px"). Other units are malformed
// because the width cap cannot be checked against them.
func dimension(n *html.Node, name string) (int, bool, error) {
	raw := strings.TrimSpace(getAttr(n, name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(strings.TrimSuffix(raw, "px"))
	if err != nil || v <= 0 {
		return 0, false, &ParseError{Reason: fmt.Sprintf("malformed %s attribute %q on <%s>", name, raw, n.Data)}
	}
	return v, true, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func setDefaultAttr(n *html.Node, key, val string) {
	for _, a := range n.Attr {
		if a.Key == key {
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func appendStyle(style, decl string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return decl
	}
	return strings.TrimSuffix(style, ";") + ";" + decl
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func summarize(s string) string {
	if len([]rune(s)) <= summaryLength {
		return s
	}
	r := []rune(s)[:summaryLength]
	if i := strings.LastIndexByte(string(r), ' '); i > 0 {
		return string(r)[:i] + "…"
	}
	return string(r) + "…"
}
