package markup

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ErrMarkupParse matches every *ParseError.
var ErrMarkupParse = errors.New("markup parse error")

// ParseError reports a body that cannot be converted.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("markup: %s: %v", e.Reason, e.Err)
	}
	return "markup: " + e.Reason
}

func (e *ParseError) Unwrap() error                  { return e.Err }
func (e *ParseError) Is(target error) bool           { return target == ErrMarkupParse }
func (e *ParseError) Category() ferrors.ErrorCategory { return ferrors.CategoryMarkup }
