package assets

import (
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/normalization"
)

// FitMode selects how a requested box is applied.
type FitMode string

const (
	// FitInside scales down to fit within the box, preserving aspect ratio.
	FitInside FitMode = "inside"
	// FitCover scales and crops to fill the box exactly.
	FitCover FitMode = "cover"
)

var fitNormalizer = normalization.New("fit mode", map[string]FitMode{
	"inside":  FitInside,
	"contain": FitInside,
	"cover":   FitCover,
	"fill":    FitCover,
}, FitInside)

// ParseFit converts a configured fit mode; empty means FitInside.
func ParseFit(raw string) (FitMode, error) {
	return fitNormalizer.Parse(raw)
}

// Reference points at a source file in the asset directory plus transform parameters.
// Zero values mean "not requested".
type Reference struct {
	Path    string
	Width   int
	Height  int
	Quality int
	Fit     FitMode
}

// Clean returns the reference with a canonical slash-separated path.
func (r Reference) Clean() Reference {
	p := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(r.Path, "\\", "/")), "/")
	r.Path = p
	if r.Fit == "" {
		r.Fit = FitInside
	}
	return r
}

// Key identifies the reference and its parameters; equal keys resolve to the same output.
func (r Reference) Key() string {
	c := r.Clean()
	return fmt.Sprintf("%s|w=%d|h=%d|q=%d|fit=%s", c.Path, c.Width, c.Height, c.Quality, c.Fit)
}
