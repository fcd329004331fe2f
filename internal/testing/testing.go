// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/ryecroft/amsync/internal/catalog"
	"github.com/ryecroft/amsync/internal/resolver"
)

// MockSearcher is a test double for [resolver.Searcher], returning a
// fixed set of songs for every term.
type MockSearcher struct {
	Songs []catalog.Song
	Err   error
	Calls int
}

func (m *MockSearcher) Search(ctx context.Context, term string, limit int) ([]catalog.Song, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Songs, nil
}

var _ resolver.Searcher = (*MockSearcher)(nil)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
