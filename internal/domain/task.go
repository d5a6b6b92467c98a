package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Task represents one row of the input table: a video to fetch
type Task struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Span Span   `json:"orig_span"`
	Row  int    `json:"row"` // 1-based data row in the input file
}

// NewTask creates a task after checking that its key can name an output file
func NewTask(key, url string, span Span, row int) (*Task, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return &Task{
		Key:  key,
		URL:  url,
		Span: span,
		Row:  row,
	}, nil
}

// OutputTemplate returns the yt-dlp output template for this task inside dir.
// A literal % in the key is doubled so yt-dlp does not read it as a field.
func (t *Task) OutputTemplate(dir string) string {
	return filepath.Join(escapeTemplate(dir), escapeTemplate(t.Key)+".%(ext)s")
}

func escapeTemplate(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// OutputPath returns the expected output file for a given extension
func (t *Task) OutputPath(dir, ext string) string {
	return filepath.Join(dir, t.Key+"."+strings.TrimPrefix(ext, "."))
}

// ValidateKey rejects keys that cannot be used as a plain file name
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	return nil
}
