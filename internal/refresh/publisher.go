package refresh

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/catsieve/internal/solve"
)

// FileStore is a Publisher that keeps each list as a JSON document in a
// state directory. It is what the CLI publishes to; wiki-writing
// publishers implement the same interface elsewhere.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// publishedList is the on-disk document for one list.
type publishedList struct {
	List      string   `json:"list"`
	Target    string   `json:"target,omitempty"`
	Titles    []string `json:"titles"`
	Warnings  []string `json:"warnings,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

func (f *FileStore) path(list string) string {
	return filepath.Join(f.dir, url.PathEscape(list)+".json")
}

// Previous implements Publisher. A list never published returns nil.
func (f *FileStore) Previous(_ context.Context, list string) ([]string, error) {
	raw, err := os.ReadFile(f.path(list))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read list %q: %w", list, err)
	}
	var doc publishedList
	if err := oj.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode list %q: %w", list, err)
	}
	if doc.Titles == nil {
		doc.Titles = []string{}
	}
	return doc.Titles, nil
}

// Publish implements Publisher. The document is written to a temp file
// and renamed so a crash never leaves a half-written list behind.
func (f *FileStore) Publish(_ context.Context, list, target string, titles []string, warnings []solve.Warning) error {
	doc := publishedList{
		List:      list,
		Target:    target,
		Titles:    titles,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, w := range warnings {
		doc.Warnings = append(doc.Warnings, w.String())
	}

	raw, err := oj.Marshal(&doc, 2)
	if err != nil {
		return fmt.Errorf("encode list %q: %w", list, err)
	}
	tmp := f.path(list) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write list %q: %w", list, err)
	}
	if err := os.Rename(tmp, f.path(list)); err != nil {
		return fmt.Errorf("replace list %q: %w", list, err)
	}
	return nil
}
