package store

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"garimpeiro/ofertaworker/pkg/errors"
)

// FileStore keeps announced identifiers in a newline-delimited text file,
// one id per line, append-only. This matches the format shared with the
// scheduler that version-controls the file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store, creating the parent directory
// if needed. The file itself is created lazily on the first append.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewStorage("file_store", "create store directory", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads every identifier from the file. A missing file is an empty set.
func (s *FileStore) Load() (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, errors.NewStorage("file_store", "open store file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewStorage("file_store", "read store file", err)
	}

	return ids, nil
}

// Append writes one identifier to the end of the file.
func (s *FileStore) Append(id string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NewStorage("file_store", "open store file for append", err)
	}
	defer f.Close()

	if _, err := f.WriteString(id + "\n"); err != nil {
		return errors.NewStorage("file_store", "append id", err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (s *FileStore) Close() error {
	return nil
}
