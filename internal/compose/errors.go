package compose

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ErrMissingDependency matches every *MissingDependencyError.
var ErrMissingDependency = errors.New("missing page dependency")

// MissingDependencyError reports a page whose mandatory records or assets are unavailable.
type MissingDependencyError struct {
	Page string
	// Kind is "records" or "asset".
	Kind string
	Name string
}

func (e *MissingDependencyError) Error() string {
	if e.Kind == "asset" {
		return fmt.Sprintf("page %q: asset %q was not resolved", e.Page, e.Name)
	}
	return fmt.Sprintf("page %q requires at least one %q record", e.Page, e.Name)
}

func (e *MissingDependencyError) Is(target error) bool            { return target == ErrMissingDependency }
func (e *MissingDependencyError) Category() ferrors.ErrorCategory { return ferrors.CategoryCompose }
