package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reserved category names. CategoryAll is stored and always first; the other
// two are computed views that never appear in the stored category list.
const (
	CategoryAll       = "전체 보기"
	CategoryRecent    = "최근 읽은 책"
	CategoryFavorites = "즐겨찾기"
)

// Book is the metadata record of one cataloged PDF, keyed by Path.
type Book struct {
	Path       string     `json:"path"`
	Title      string     `json:"title"`
	Cover      string     `json:"cover"`
	Category   string     `json:"category"`
	LastPage   int        `json:"last_page"`
	TotalPages int        `json:"total_pages"`
	LastRead   *Timestamp `json:"last_read"`
	Favorite   bool       `json:"favorite"`
}

// clone returns a copy that shares no pointers with b.
func (b Book) clone() Book {
	if b.LastRead != nil {
		ts := *b.LastRead
		b.LastRead = &ts
	}
	return b
}

// catalogFile is the on-disk shape of books.json.
type catalogFile struct {
	Categories []string `json:"categories"`
	Books      []Book   `json:"books"`
}

func defaultCatalog() catalogFile {
	return catalogFile{
		Categories: []string{CategoryAll},
		Books:      []Book{},
	}
}

// Timestamp is the last_read time of a book. It is written as RFC 3339 and
// also reads the zone-less ISO form older catalogs contain, in local time.
type Timestamp struct {
	time.Time
}

const legacyTimestampLayout = "2006-01-02T15:04:05"

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("last_read must be a string: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	// Fractional seconds are accepted after the seconds field even though the
	// layout does not spell them out.
	parsed, err := time.ParseInLocation(legacyTimestampLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid last_read %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}
