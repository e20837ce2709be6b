package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Search returns the books whose title contains query, ignoring case.
// Titles and query are compared in NFC so that decomposed file names, as
// macOS stores them, match composed input. A blank query returns every book.
func (s *Store) Search(query string) []Book {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Books(CategoryAll)
	}

	fold := cases.Fold()
	needle := fold.String(norm.NFC.String(query))
	return s.snapshot(func(b Book) bool {
		return strings.Contains(fold.String(norm.NFC.String(b.Title)), needle)
	})
}
