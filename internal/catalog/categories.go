package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Categories returns the stored category names, CategoryAll first.
func (s *Store) Categories() []string {
	return slices.Clone(s.data.Categories)
}

// AddCategory appends a new category.
func (s *Store) AddCategory(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidCategory
	}
	if name == CategoryAll || isPseudoCategory(name) {
		return fmt.Errorf("%w: %s", ErrReservedCategory, name)
	}

	s.reload()
	if s.hasCategory(name) {
		return fmt.Errorf("%w: %s", ErrCategoryExists, name)
	}
	s.data.Categories = append(s.data.Categories, name)
	return s.Save()
}

// DeleteCategory removes a category together with every book filed under it
// and their covers. CategoryAll cannot be deleted.
func (s *Store) DeleteCategory(name string) error {
	if name == CategoryAll {
		return fmt.Errorf("%w: %s", ErrReservedCategory, name)
	}

	s.reload()
	i := slices.Index(s.data.Categories, name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}
	s.data.Categories = slices.Delete(s.data.Categories, i, i+1)

	removed := 0
	for j := len(s.data.Books) - 1; j >= 0; j-- {
		if s.data.Books[j].Category == name {
			s.removeBookAt(j)
			removed++
		}
	}
	s.logger.Info("category deleted", "category", name, "books_removed", removed)
	return s.Save()
}

func (s *Store) hasCategory(name string) bool {
	return slices.Contains(s.data.Categories, name)
}
