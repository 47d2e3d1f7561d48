package render

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ErrRender matches every *Error.
var ErrRender = errors.New("render failed")

// Error reports a template or output failure for one page.
type Error struct {
	Page     string
	Template string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render page %q (template %q): %s: %v", e.Page, e.Template, e.Op, e.Err)
}

func (e *Error) Unwrap() error                   { return e.Err }
func (e *Error) Is(target error) bool            { return target == ErrRender }
func (e *Error) Category() ferrors.ErrorCategory { return ferrors.CategoryRender }
