package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreEmptyWhenMissing(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "announced.dat"))
	require.NoError(t, err)
	defer s.Close()

	ids, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStoreAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "announced.dat")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append("B0ABC12345"))
	require.NoError(t, s.Append("B0XYZ99999"))

	ids, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "B0ABC12345")
	assert.Contains(t, ids, "B0XYZ99999")

	// newline-delimited, one id per line, append-only
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "B0ABC12345\nB0XYZ99999\n", string(data))
}

func TestFileStoreSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "announced.dat")
	require.NoError(t, os.WriteFile(path, []byte("B0ABC12345\n\n  \nB0XYZ99999\n"), 0o644))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	ids, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "announced.dat")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append("B0ABC12345"))
	ids, err := s.Load()
	require.NoError(t, err)
	assert.Contains(t, ids, "B0ABC12345")
}

func TestNewFactorySelectsBackend(t *testing.T) {
	dir := t.TempDir()

	fileStore, err := New("file", filepath.Join(dir, "a.dat"))
	require.NoError(t, err)
	defer fileStore.Close()
	assert.IsType(t, &FileStore{}, fileStore)

	boltStore, err := New("bbolt", filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	defer boltStore.Close()
	assert.IsType(t, &BoltStore{}, boltStore)

	_, err = New("postgres", "dsn")
	assert.Error(t, err)
}
