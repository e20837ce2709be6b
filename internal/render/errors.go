package render

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("pdf file not found")
	ErrNotPDF         = errors.New("not a PDF file")
	ErrEncrypted      = errors.New("pdf is password protected")
	ErrNoPages        = errors.New("pdf has no pages")
	ErrPageOutOfRange = errors.New("page index out of range")
)

// DecodeError reports that a document could not be opened or decoded.
// Err is one of the sentinel errors above or the underlying MuPDF error.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
