package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// DefaultExt is used when an upload carries no usable filename extension.
// Transcription backends infer the container format from the suffix.
const DefaultExt = ".wav"

// TempStore writes request-scoped audio uploads to uniquely named files.
type TempStore struct {
	dir string
	log zerolog.Logger
}

// NewTempStore creates a temp store rooted at dir. An empty dir uses os.TempDir().
func NewTempStore(dir string, log zerolog.Logger) *TempStore {
	return &TempStore{dir: dir, log: log}
}

// Store writes data to a new temp file ending in ext and returns its path.
// The caller owns the file and must Release it.
func (s *TempStore) Store(data []byte, ext string) (string, error) {
	if ext == "" {
		ext = DefaultExt
	}
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", s.dir, err)
		}
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	path := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp: %w", err)
	}
	return path, nil
}

// Release deletes a file created by Store. Failures are logged, never returned.
func (s *TempStore) Release(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove temp file")
	}
}

// Dir returns the directory temp files are created in.
func (s *TempStore) Dir() string {
	if s.dir == "" {
		return os.TempDir()
	}
	return s.dir
}

// maxExtLen bounds the extension copied from a client filename, dot included.
const maxExtLen = 16

// ExtFor returns the extension of filename, or DefaultExt if it is missing,
// longer than maxExtLen, or contains anything but ASCII letters and digits.
func ExtFor(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) < 2 || len(ext) > maxExtLen {
		return DefaultExt
	}
	for _, c := range ext[1:] {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return DefaultExt
		}
	}
	return ext
}
