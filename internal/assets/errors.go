package assets

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

var (
	// ErrAssetNotFound matches every *NotFoundError.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrAssetProcess matches every *ProcessError.
	ErrAssetProcess = errors.New("asset processing failed")
)

// NotFoundError reports a reference whose source file does not exist in the asset directory.
type NotFoundError struct {
	Ref    Reference
	Source string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset not found: %s (looked in %s)", e.Ref.Path, e.Source)
}

func (e *NotFoundError) Unwrap() error                  { return e.Err }
func (e *NotFoundError) Is(target error) bool           { return target == ErrAssetNotFound }
func (e *NotFoundError) Category() ferrors.ErrorCategory { return ferrors.CategoryAsset }

// ProcessError reports a decode, resize, encode or write failure.
type ProcessError struct {
	Ref Reference
	Op  string
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("asset %s: %s: %v", e.Ref.Path, e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error                  { return e.Err }
func (e *ProcessError) Is(target error) bool           { return target == ErrAssetProcess }
func (e *ProcessError) Category() ferrors.ErrorCategory { return ferrors.CategoryAsset }
