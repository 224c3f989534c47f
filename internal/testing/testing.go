// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/booksearch/internal/models"
)

// MockCatalog is a test double for [services.Catalog].
//
// SearchFunc, when set, takes precedence over Books/Err. Calls are recorded in order.
type MockCatalog struct {
	Books      []models.Book
	Err        error
	SearchFunc func(ctx context.Context, query string) ([]models.Book, error)

	mu      sync.Mutex
	queries []string
}

func (m *MockCatalog) Search(ctx context.Context, query string) ([]models.Book, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return m.Books, m.Err
}

func (m *MockCatalog) Name() string { return "mock" }

// Queries returns the queries seen so far.
func (m *MockCatalog) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// BlockingCatalog returns a SearchFunc that waits for release (or ctx) before answering.
func BlockingCatalog(release <-chan struct{}, books []models.Book) func(context.Context, string) ([]models.Book, error) {
	return func(ctx context.Context, _ string) ([]models.Book, error) {
		select {
		case <-release:
			return books, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// MockRecorder collects search history records.
type MockRecorder struct {
	mu      sync.Mutex
	Records []*models.SearchRecord
	Err     error
}

func (m *MockRecorder) Record(r *models.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, r)
	return m.Err
}

// Snapshot returns a copy of the collected records.
func (m *MockRecorder) Snapshot() []*models.SearchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.SearchRecord(nil), m.Records...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// PNGBytes encodes a small solid image for cover download tests.
func PNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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
