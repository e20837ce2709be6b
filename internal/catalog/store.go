// Package catalog keeps the library's categories and book records in a
// single JSON file.
//
// The store re-reads the file before every mutation and rewrites it in full
// afterwards; there is no incremental write and no in-memory cache.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultFileName is the catalog file inside the data directory.
	DefaultFileName = "books.json"
	// CorruptSuffix is appended to an undecodable catalog file when it is
	// moved aside.
	CorruptSuffix = ".corrupt"
	// CoversDirName is the thumbnail directory inside the data directory.
	CoversDirName = "covers"
	// DefaultRecentLimit caps the recently-read view.
	DefaultRecentLimit = 10
)

// Inspector is what the store needs from a PDF backend when adding books.
type Inspector interface {
	PageCount(pdfPath string) (int, error)
	CreateThumbnail(pdfPath, outPath string) bool
}

// Options configures a Store.
type Options struct {
	// Dir is the data directory holding books.json and covers/.
	Dir string
	// FileName overrides DefaultFileName.
	FileName    string
	Inspector   Inspector
	RecentLimit int
	Logger      *slog.Logger
	// Now returns the time stamped into last_read. Defaults to time.Now.
	Now func() time.Time
}

// Store is the catalog of categories and books backed by one JSON file.
// It is meant for a single process and a single goroutine.
type Store struct {
	dir         string
	coverDir    string
	path        string
	data        catalogFile
	inspector   Inspector
	recentLimit int
	now         func() time.Time
	logger      *slog.Logger

	// unparsable is set while the file on disk could not be decoded; the
	// next Save moves it aside instead of overwriting it.
	unparsable bool
}

// New creates the data and covers directories if needed and loads the
// catalog. An unreadable or corrupt catalog file does not fail construction:
// the store logs it and starts from the empty default catalog.
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("catalog directory is required")
	}

	fileName := opts.FileName
	if fileName == "" {
		fileName = DefaultFileName
	}
	recentLimit := opts.RecentLimit
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		dir:         opts.Dir,
		coverDir:    filepath.Join(opts.Dir, CoversDirName),
		path:        filepath.Join(opts.Dir, fileName),
		data:        defaultCatalog(),
		inspector:   opts.Inspector,
		recentLimit: recentLimit,
		now:         now,
		logger:      logger,
	}

	if err := os.MkdirAll(s.coverDir, 0o755); err != nil {
		return nil, &StorageError{Op: "create", Path: s.coverDir, Err: err}
	}

	if err := s.Load(); err != nil {
		s.logger.Warn("catalog unreadable, starting with an empty library", "path", s.path, "error", err)
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// CoverDir returns the thumbnail directory.
func (s *Store) CoverDir() string { return s.coverDir }

// Path returns the catalog file path.
func (s *Store) Path() string { return s.path }

// Load re-reads the catalog file and normalizes it. A missing file leaves the
// in-memory catalog as it is. On any other failure the last-known-good
// catalog is kept and a *StorageError is returned. A file that cannot be
// decoded is renamed to books.json.corrupt by the next Save.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.unparsable = false
		s.data = normalize(s.data, s.logger)
		return nil
	}
	if err != nil {
		return &StorageError{Op: "read", Path: s.path, Err: err}
	}

	f, err := decodeCatalog(data)
	if err != nil {
		s.unparsable = true
		return &StorageError{Op: "decode", Path: s.path, Err: err}
	}
	s.unparsable = false
	s.data = normalize(f, s.logger)
	return nil
}

// Save writes the whole catalog to a temporary file and renames it over the
// catalog file, so a failed write never leaves a half-written catalog.
func (s *Store) Save() error {
	data, err := encodeCatalog(s.data)
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}

	if s.unparsable {
		backup := s.path + CorruptSuffix
		if err := os.Rename(s.path, backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &StorageError{Op: "backup", Path: s.path, Err: err}
		}
		s.unparsable = false
		s.logger.Warn("unreadable catalog moved aside", "path", s.path, "backup", backup)
	}

	tmp, err := os.CreateTemp(s.dir, ".books-*.json.tmp")
	if err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// reload refreshes from disk before a mutation. A failed reload is logged and
// the mutation proceeds on the in-memory catalog.
func (s *Store) reload() {
	if err := s.Load(); err != nil {
		s.logger.Warn("reload failed, using in-memory catalog", "path", s.path, "error", err)
	}
}

// decodeCatalog parses the strict object schema, or a bare list of books,
// which is the legacy shape. Nothing else is accepted.
func decodeCatalog(data []byte) (catalogFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return catalogFile{}, errors.New("catalog file is empty")
	}

	switch trimmed[0] {
	case '{':
		var f catalogFile
		if err := strictUnmarshal(trimmed, &f); err != nil {
			return catalogFile{}, err
		}
		return f, nil
	case '[':
		var books []Book
		if err := strictUnmarshal(trimmed, &books); err != nil {
			return catalogFile{}, fmt.Errorf("legacy book list: %w", err)
		}
		return catalogFile{Books: books}, nil
	default:
		return catalogFile{}, ErrUnknownShape
	}
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after catalog")
	}
	return nil
}

func encodeCatalog(f catalogFile) ([]byte, error) {
	if f.Books == nil {
		f.Books = []Book{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// normalize puts CategoryAll first, drops duplicate and pseudo categories and
// keeps the first record for each book path.
func normalize(f catalogFile, logger *slog.Logger) catalogFile {
	categories := make([]string, 0, len(f.Categories)+1)
	categories = append(categories, CategoryAll)
	seen := map[string]struct{}{CategoryAll: {}}
	for _, name := range f.Categories {
		if _, dup := seen[name]; dup || isPseudoCategory(name) {
			continue
		}
		seen[name] = struct{}{}
		categories = append(categories, name)
	}

	books := make([]Book, 0, len(f.Books))
	paths := make(map[string]struct{}, len(f.Books))
	for _, b := range f.Books {
		if _, dup := paths[b.Path]; dup {
			logger.Warn("dropping duplicate book record", "path", b.Path)
			continue
		}
		paths[b.Path] = struct{}{}
		books = append(books, b)
	}

	return catalogFile{Categories: categories, Books: books}
}

func isPseudoCategory(name string) bool {
	return name == CategoryRecent || name == CategoryFavorites
}
