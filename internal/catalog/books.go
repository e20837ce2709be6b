package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ProgressFunc is called before each file of an AddBooks batch with the
// 1-based index, the batch size and the file path. Returning false stops the
// batch; books added so far are kept.
type ProgressFunc func(current, total int, path string) bool

// AddBooks catalogs every path that is not cataloged yet under category
// (CategoryAll when empty) and returns how many books were added.
//
// A cover is generated only when {covers}/{title}_thumb.png does not exist, so
// two files with the same base name share one cover. Files whose page count
// cannot be read are skipped and reported in the returned error, which may be
// non-nil even when some books were added. The catalog is saved once, at the
// end of the batch.
func (s *Store) AddBooks(paths []string, category string, progress ProgressFunc) (int, error) {
	if s.inspector == nil {
		return 0, ErrNoInspector
	}
	s.reload()

	if category == "" {
		category = CategoryAll
	}
	if !s.hasCategory(category) {
		return 0, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}

	var errs []error
	added := 0
	total := len(paths)
	for i, path := range paths {
		if progress != nil && !progress(i+1, total, path) {
			s.logger.Info("add cancelled", "added", added, "remaining", total-i)
			break
		}

		if s.indexOf(path) >= 0 {
			s.logger.Debug("already cataloged", "path", path)
			continue
		}

		pages, err := s.inspector.PageCount(path)
		if err != nil {
			s.logger.Warn("skipping unreadable pdf", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}

		title := filepath.Base(path)
		cover := s.coverPath(title)
		if _, err := os.Stat(cover); err != nil {
			if !s.inspector.CreateThumbnail(path, cover) {
				s.logger.Warn("no cover generated", "path", path)
			}
		}

		s.data.Books = append(s.data.Books, Book{
			Path:       path,
			Title:      title,
			Cover:      cover,
			Category:   category,
			LastPage:   0,
			TotalPages: pages,
			LastRead:   nil,
			Favorite:   false,
		})
		added++
		s.logger.Debug("book added", "path", path, "pages", pages, "category", category)
	}

	if err := s.Save(); err != nil {
		errs = append(errs, err)
	}
	return added, errors.Join(errs...)
}

// MoveBook moves the book at path into category.
func (s *Store) MoveBook(path, category string) error {
	s.reload()
	if !s.hasCategory(category) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	b, err := s.find(path)
	if err != nil {
		return err
	}
	b.Category = category
	return s.Save()
}

// ToggleFavorite flips the favorite flag of the book at path and returns the
// new value.
func (s *Store) ToggleFavorite(path string) (bool, error) {
	s.reload()
	b, err := s.find(path)
	if err != nil {
		return false, err
	}
	b.Favorite = !b.Favorite
	favorite := b.Favorite
	if err := s.Save(); err != nil {
		return favorite, err
	}
	return favorite, nil
}

// UpdateLastPage records the 0-based reading position and stamps last_read.
func (s *Store) UpdateLastPage(path string, page int) error {
	if page < 0 {
		return ErrInvalidPage
	}
	s.reload()
	b, err := s.find(path)
	if err != nil {
		return err
	}
	b.LastPage = page
	b.LastRead = NewTimestamp(s.now())
	return s.Save()
}

// UpdateBookPath re-points a book whose file has moved. The title and cover
// are kept.
func (s *Store) UpdateBookPath(oldPath, newPath string) error {
	s.reload()
	b, err := s.find(oldPath)
	if err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}
	if s.indexOf(newPath) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, newPath)
	}
	b.Path = newPath
	return s.Save()
}

// DeleteBook removes the book at path and its cover file.
func (s *Store) DeleteBook(path string) error {
	s.reload()
	i := s.indexOf(path)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBookNotFound, path)
	}
	s.removeBookAt(i)
	return s.Save()
}

// DeleteBookAt removes the book at index in the Books(CategoryAll) order.
func (s *Store) DeleteBookAt(index int) error {
	s.reload()
	if index < 0 || index >= len(s.data.Books) {
		return fmt.Errorf("%w: index %d", ErrBookNotFound, index)
	}
	s.removeBookAt(index)
	return s.Save()
}

// RelocateCovers re-points every cover stored in oldCoverDir to the file of
// the same name in the store's cover directory, as after copying a library
// to a new data directory. Relative cover paths are resolved against the
// parent of oldCoverDir. It returns how many books changed. The catalog is
// saved only when it could be read and something changed.
func (s *Store) RelocateCovers(oldCoverDir string) (int, error) {
	if err := s.Load(); err != nil {
		return 0, err
	}

	oldDir := filepath.Clean(oldCoverDir)
	base := filepath.Dir(oldDir)
	moved := 0
	for i := range s.data.Books {
		b := &s.data.Books[i]
		if b.Cover == "" {
			continue
		}
		cover := b.Cover
		if !filepath.IsAbs(cover) {
			cover = filepath.Join(base, cover)
		}
		if filepath.Dir(filepath.Clean(cover)) != oldDir {
			continue
		}
		b.Cover = filepath.Join(s.coverDir, filepath.Base(cover))
		moved++
	}
	if moved == 0 {
		return 0, nil
	}
	s.logger.Info("covers relocated", "from", oldDir, "to", s.coverDir, "books", moved)
	return moved, s.Save()
}

// Book returns a copy of the book at path.
func (s *Store) Book(path string) (Book, bool) {
	i := s.indexOf(path)
	if i < 0 {
		return Book{}, false
	}
	return s.data.Books[i].clone(), true
}

// Books returns a snapshot of the books in category. CategoryAll lists every
// book, CategoryRecent the most recently read ones newest first, and
// CategoryFavorites the favorites in catalog order.
func (s *Store) Books(category string) []Book {
	switch category {
	case CategoryAll:
		return s.snapshot(func(Book) bool { return true })
	case CategoryRecent:
		return s.recent()
	case CategoryFavorites:
		return s.snapshot(func(b Book) bool { return b.Favorite })
	default:
		return s.snapshot(func(b Book) bool { return b.Category == category })
	}
}

func (s *Store) recent() []Book {
	books := s.snapshot(func(b Book) bool { return b.LastRead != nil })
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].LastRead.After(books[j].LastRead.Time)
	})
	if len(books) > s.recentLimit {
		books = books[:s.recentLimit]
	}
	return books
}

func (s *Store) snapshot(keep func(Book) bool) []Book {
	out := make([]Book, 0, len(s.data.Books))
	for _, b := range s.data.Books {
		if keep(b) {
			out = append(out, b.clone())
		}
	}
	return out
}

func (s *Store) find(path string) (*Book, error) {
	i := s.indexOf(path)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, path)
	}
	return &s.data.Books[i], nil
}

func (s *Store) indexOf(path string) int {
	for i := range s.data.Books {
		if s.data.Books[i].Path == path {
			return i
		}
	}
	return -1
}

func (s *Store) coverPath(title string) string {
	return filepath.Join(s.coverDir, title+"_thumb.png")
}

// removeBookAt drops the book at i and deletes its cover. Cover removal is
// best effort.
func (s *Store) removeBookAt(i int) {
	b := s.data.Books[i]
	if b.Cover != "" {
		if err := os.Remove(b.Cover); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to delete cover", "cover", b.Cover, "error", err)
		}
	}
	s.data.Books = append(s.data.Books[:i], s.data.Books[i+1:]...)
}
