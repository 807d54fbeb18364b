package shared

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/spacemeshos/loquat/merkle"
)

var (
	ErrEmptyInput      = merkle.ErrEmptyInput
	ErrIndexOutOfRange = merkle.ErrIndexOutOfRange

	ErrInvalidIndex    = errors.New("invalid disclosure index")
	ErrEmptyDisclosure = errors.New("at least one attribute must be disclosed")
	ErrTreeMismatch    = errors.New("tree does not match the attributes or signature")
)

// IndexError reports an index outside the committed attribute range.
type IndexError struct {
	Index int
	Count int
	Err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: %d not in [0, %d)", e.Err, e.Index, e.Count)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// HashMismatchError is returned when an object was produced under a different hash oracle.
type HashMismatchError struct {
	Expected string
	Found    string
	Path     string
}

func (err HashMismatchError) Error() string {
	return fmt.Sprintf("`hash` mismatch; expected: %v, found: %v, path: %v",
		err.Expected, err.Found, err.Path)
}
