package content

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

var (
	// ErrContentLoad matches every *LoadError.
	ErrContentLoad = errors.New("content load error")
	// ErrDuplicateRecord matches every *DuplicateRecordError.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// LoadError reports a malformed or unreadable source file, or a record that
// fails its schema.
type LoadError struct {
	Path   string
	Type   string
	Record string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "load " + e.Path
	if e.Type != "" {
		msg += fmt.Sprintf(" (%s", e.Type)
		if e.Record != "" {
			msg += "/" + e.Record
		}
		msg += ")"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error                  { return e.Err }
func (e *LoadError) Is(target error) bool           { return target == ErrContentLoad }
func (e *LoadError) Category() ferrors.ErrorCategory { return ferrors.CategoryContent }

// DuplicateRecordError reports two records of one type sharing a key.
type DuplicateRecordError struct {
	Type   string
	Name   string
	First  string
	Second string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate %s record %q in %s (first defined in %s)", e.Type, e.Name, e.Second, e.First)
}

func (e *DuplicateRecordError) Is(target error) bool           { return target == ErrDuplicateRecord }
func (e *DuplicateRecordError) Category() ferrors.ErrorCategory { return ferrors.CategoryContent }
