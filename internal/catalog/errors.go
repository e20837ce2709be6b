package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrReservedCategory = errors.New("category is reserved")
	ErrInvalidCategory  = errors.New("category name must not be blank")
	ErrDuplicatePath    = errors.New("path is already cataloged")
	ErrInvalidPage      = errors.New("page number must not be negative")
	ErrNoInspector      = errors.New("no document inspector configured")
	ErrUnknownShape     = errors.New("catalog is neither an object nor a list")
)

// StorageError reports a failure to read, decode or write the catalog file.
// The store keeps its last-known-good state when one occurs.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
