package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookPaths(books []Book) []string {
	paths := make([]string, len(books))
	for i, b := range books {
		paths[i] = b.Path
	}
	return paths
}

func TestAddBooks_CreatesRecords(t *testing.T) {
	dir := t.TempDir()
	inspector := newFakeInspector()
	inspector.pages["/library/go.pdf"] = 321
	s := setupStore(t, dir, inspector)

	n, err := s.AddBooks([]string{"/library/go.pdf"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, ok := s.Book("/library/go.pdf")
	require.True(t, ok)
	assert.Equal(t, Book{
		Path:       "/library/go.pdf",
		Title:      "go.pdf",
		Cover:      filepath.Join(dir, "covers", "go.pdf_thumb.png"),
		Category:   CategoryAll,
		LastPage:   0,
		TotalPages: 321,
		LastRead:   nil,
		Favorite:   false,
	}, b)
	assert.Equal(t, []string{b.Cover}, inspector.thumbs)
}

func TestAddBooks_Uniqueness(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())

	n, err := s.AddBooks([]string{"/a.pdf", "/b.pdf", "/a.pdf"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.UpdateLastPage("/a.pdf", 4))
	_, err = s.ToggleFavorite("/a.pdf")
	require.NoError(t, err)

	n, err = s.AddBooks([]string{"/b.pdf", "/a.pdf", "/c.pdf"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{"/a.pdf", "/b.pdf", "/c.pdf"}, bookPaths(s.Books(CategoryAll)))
	a, _ := s.Book("/a.pdf")
	assert.Equal(t, 4, a.LastPage)
	assert.True(t, a.Favorite)
	assert.NotNil(t, a.LastRead)
}

func TestAddBooks_Cancellation(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())

	type call struct {
		current, total int
		path           string
	}
	var calls []call
	progress := func(current, total int, path string) bool {
		calls = append(calls, call{current, total, path})
		return current < 3
	}

	paths := []string{"/1.pdf", "/2.pdf", "/3.pdf", "/4.pdf"}
	n, err := s.AddBooks(paths, "", progress)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"/1.pdf", "/2.pdf"}, bookPaths(s.Books(CategoryAll)))
	assert.Equal(t, []call{{1, 4, "/1.pdf"}, {2, 4, "/2.pdf"}, {3, 4, "/3.pdf"}}, calls)

	reopened := setupStore(t, s.Dir(), nil)
	assert.Len(t, reopened.Books(CategoryAll), 2)
}

func TestAddBooks_ThumbnailIdempotence(t *testing.T) {
	dir := t.TempDir()
	inspector := newFakeInspector()
	s := setupStore(t, dir, inspector)

	_, err := s.AddBooks([]string{"/shelf/book.pdf"}, "", nil)
	require.NoError(t, err)
	require.Len(t, inspector.thumbs, 1)

	cover := filepath.Join(dir, "covers", "book.pdf_thumb.png")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(cover, old, old))

	_, err = s.AddBooks([]string{"/shelf/book.pdf"}, "", nil)
	require.NoError(t, err)
	n, err := s.AddBooks([]string{"/other/book.pdf"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Len(t, inspector.thumbs, 1)
	info, err := os.Stat(cover)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "cover was touched: %v", info.ModTime())

	data, err := os.ReadFile(cover)
	require.NoError(t, err)
	assert.Equal(t, "png:/shelf/book.pdf", string(data))

	other, _ := s.Book("/other/book.pdf")
	assert.Equal(t, cover, other.Cover)
}

func TestAddBooks_SkipsUnreadableFiles(t *testing.T) {
	inspector := newFakeInspector()
	decodeErr := errors.New("not a pdf")
	inspector.broken["/bad.pdf"] = decodeErr
	s := setupStore(t, t.TempDir(), inspector)

	n, err := s.AddBooks([]string{"/good.pdf", "/bad.pdf", "/fine.pdf"}, "", nil)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, decodeErr)
	assert.Equal(t, []string{"/good.pdf", "/fine.pdf"}, bookPaths(s.Books(CategoryAll)))
}

func TestAddBooks_CategoryChecks(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())

	_, err := s.AddBooks([]string{"/a.pdf"}, "없는 분류", nil)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	_, err = s.AddBooks([]string{"/a.pdf"}, CategoryFavorites, nil)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	require.NoError(t, s.AddCategory("소설"))
	n, err := s.AddBooks([]string{"/a.pdf"}, "소설", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, s.Books("소설"), 1)
}

func TestAddBooks_NoInspector(t *testing.T) {
	s := setupStore(t, t.TempDir(), nil)
	_, err := s.AddBooks([]string{"/a.pdf"}, "", nil)
	assert.ErrorIs(t, err, ErrNoInspector)
}

func TestBooks_RecentView(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	s, err := New(Options{
		Dir:       dir,
		Inspector: newFakeInspector(),
		Logger:    quietLogger(),
		Now:       func() time.Time { return current },
	})
	require.NoError(t, err)

	var paths []string
	for i := 1; i <= 16; i++ {
		paths = append(paths, fmt.Sprintf("/t%02d.pdf", i))
	}
	_, err = s.AddBooks(paths, "", nil)
	require.NoError(t, err)

	// Read t01..t15 in an order that differs from catalog order; t16 stays unread.
	order := []int{8, 3, 15, 1, 12, 5, 9, 14, 2, 7, 11, 4, 13, 6, 10}
	for _, i := range order {
		current = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.UpdateLastPage(fmt.Sprintf("/t%02d.pdf", i), 1))
	}

	recent := s.Books(CategoryRecent)
	var want []string
	for i := 15; i >= 6; i-- {
		want = append(want, fmt.Sprintf("/t%02d.pdf", i))
	}
	assert.Equal(t, want, bookPaths(recent))
}

func TestBooks_FavoritesView(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())
	_, err := s.AddBooks([]string{"/a.pdf", "/b.pdf", "/c.pdf", "/d.pdf", "/e.pdf"}, "", nil)
	require.NoError(t, err)

	for _, p := range []string{"/d.pdf", "/a.pdf", "/c.pdf"} {
		fav, err := s.ToggleFavorite(p)
		require.NoError(t, err)
		assert.True(t, fav)
	}
	assert.Equal(t, []string{"/a.pdf", "/c.pdf", "/d.pdf"}, bookPaths(s.Books(CategoryFavorites)))

	fav, err := s.ToggleFavorite("/c.pdf")
	require.NoError(t, err)
	assert.False(t, fav)
	assert.Equal(t, []string{"/a.pdf", "/d.pdf"}, bookPaths(s.Books(CategoryFavorites)))
}

func TestBooks_ReturnsSnapshot(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())
	_, err := s.AddBooks([]string{"/a.pdf"}, "", nil)
	require.NoError(t, err)
	require.NoError(t, s.UpdateLastPage("/a.pdf", 2))

	books := s.Books(CategoryAll)
	books[0].Title = "changed"
	books[0].LastRead.Time = time.Time{}

	b, _ := s.Book("/a.pdf")
	assert.Equal(t, "a.pdf", b.Title)
	assert.False(t, b.LastRead.IsZero())
}

func TestMoveBook(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())
	require.NoError(t, s.AddCategory("소설"))
	_, err := s.AddBooks([]string{"/a.pdf"}, "", nil)
	require.NoError(t, err)

	require.NoError(t, s.MoveBook("/a.pdf", "소설"))
	assert.Equal(t, []string{"/a.pdf"}, bookPaths(s.Books("소설")))

	assert.ErrorIs(t, s.MoveBook("/missing.pdf", "소설"), ErrBookNotFound)
	assert.ErrorIs(t, s.MoveBook("/a.pdf", "없음"), ErrCategoryNotFound)
}

func TestUpdateLastPage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, err := New(Options{
		Dir:       t.TempDir(),
		Inspector: newFakeInspector(),
		Logger:    quietLogger(),
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	_, err = s.AddBooks([]string{"/a.pdf"}, "", nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateLastPage("/a.pdf", 41))
	b, _ := s.Book("/a.pdf")
	assert.Equal(t, 41, b.LastPage)
	require.NotNil(t, b.LastRead)
	assert.True(t, b.LastRead.Equal(now))

	assert.ErrorIs(t, s.UpdateLastPage("/a.pdf", -1), ErrInvalidPage)
	assert.ErrorIs(t, s.UpdateLastPage("/nope.pdf", 1), ErrBookNotFound)
}

func TestUpdateBookPath(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())
	_, err := s.AddBooks([]string{"/old/a.pdf", "/b.pdf"}, "", nil)
	require.NoError(t, err)
	before, _ := s.Book("/old/a.pdf")

	require.NoError(t, s.UpdateBookPath("/old/a.pdf", "/new/renamed.pdf"))
	_, ok := s.Book("/old/a.pdf")
	assert.False(t, ok)
	after, ok := s.Book("/new/renamed.pdf")
	require.True(t, ok)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Cover, after.Cover)

	assert.ErrorIs(t, s.UpdateBookPath("/new/renamed.pdf", "/b.pdf"), ErrDuplicatePath)
	assert.ErrorIs(t, s.UpdateBookPath("/old/a.pdf", "/c.pdf"), ErrBookNotFound)
	assert.NoError(t, s.UpdateBookPath("/b.pdf", "/b.pdf"))
}

func TestDeleteBook(t *testing.T) {
	dir := t.TempDir()
	s := setupStore(t, dir, newFakeInspector())
	_, err := s.AddBooks([]string{"/a.pdf", "/b.pdf", "/c.pdf"}, "", nil)
	require.NoError(t, err)
	a, _ := s.Book("/a.pdf")
	c, _ := s.Book("/c.pdf")

	require.NoError(t, s.DeleteBook("/a.pdf"))
	assert.NoFileExists(t, a.Cover)
	assert.Equal(t, []string{"/b.pdf", "/c.pdf"}, bookPaths(s.Books(CategoryAll)))

	require.NoError(t, s.DeleteBookAt(1))
	assert.NoFileExists(t, c.Cover)
	assert.Equal(t, []string{"/b.pdf"}, bookPaths(s.Books(CategoryAll)))

	assert.ErrorIs(t, s.DeleteBook("/a.pdf"), ErrBookNotFound)
	assert.ErrorIs(t, s.DeleteBookAt(5), ErrBookNotFound)
	assert.ErrorIs(t, s.DeleteBookAt(-1), ErrBookNotFound)
}

func TestDeleteBook_MissingCoverIsNotAnError(t *testing.T) {
	s := setupStore(t, t.TempDir(), newFakeInspector())
	_, err := s.AddBooks([]string{"/a.pdf"}, "", nil)
	require.NoError(t, err)
	a, _ := s.Book("/a.pdf")
	require.NoError(t, os.Remove(a.Cover))

	assert.NoError(t, s.DeleteBook("/a.pdf"))
	assert.Empty(t, s.Books(CategoryAll))
}

func TestRelocateCovers(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeCatalog(t, newDir, `{"categories": ["전체 보기"], "books": [
        {"path": "/a.pdf", "title": "a.pdf", "cover": "`+filepath.ToSlash(filepath.Join(oldDir, "covers", "a.pdf_thumb.png"))+`", "category": "전체 보기", "last_page": 0, "total_pages": 1, "last_read": null, "favorite": false},
        {"path": "/b.pdf", "title": "b.pdf", "cover": "covers/b.pdf_thumb.png", "category": "전체 보기", "last_page": 0, "total_pages": 1, "last_read": null, "favorite": false},
        {"path": "/c.pdf", "title": "c.pdf", "cover": "/elsewhere/c.png", "category": "전체 보기", "last_page": 0, "total_pages": 1, "last_read": null, "favorite": false},
        {"path": "/d.pdf", "title": "d.pdf", "cover": "", "category": "전체 보기", "last_page": 0, "total_pages": 1, "last_read": null, "favorite": false}
    ]}`)
	s := setupStore(t, newDir, nil)

	n, err := s.RelocateCovers(filepath.Join(oldDir, "covers"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	reopened := setupStore(t, newDir, nil)
	want := map[string]string{
		"/a.pdf": filepath.Join(newDir, "covers", "a.pdf_thumb.png"),
		"/b.pdf": filepath.Join(newDir, "covers", "b.pdf_thumb.png"),
		"/c.pdf": "/elsewhere/c.png",
		"/d.pdf": "",
	}
	for path, cover := range want {
		b, ok := reopened.Book(path)
		require.True(t, ok, path)
		assert.Equal(t, cover, b.Cover, path)
	}

	n, err = s.RelocateCovers(filepath.Join(oldDir, "covers"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelocateCovers_UnreadableCatalogIsLeftAlone(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "{broken")
	s := setupStore(t, dir, nil)

	_, err := s.RelocateCovers(filepath.Join(t.TempDir(), "covers"))
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}
