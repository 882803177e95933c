// Package testing holds test doubles shared across packages.
//
// fakes.go provides in-memory stand-ins for the engine boundaries: [FakeOrigin] (catalog API),
// [FakeStore] (durable tier), [FakeResolver] (oEmbed) and [FakePlayer] (control surface). This file holds
// io and filesystem helpers for CLI output and export tests.
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"testing"
)

var (
	errWrite = errors.New("write failed")
	errRead  = errors.New("read failed")
)

// FWriter fails every write. Used as runner output to exercise write errors.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (int, error) { return 0, errWrite }

// LimitedWriter forwards the first maxWrites writes to target and fails the rest.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, errWrite
	}
	l.written++
	return l.target.Write(p)
}

// NewLimitedWriter returns a writer that has already seen written of its maxWrites writes.
func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper answers every request with the same response or error, for origin and resolver
// clients built with a custom [http.Client].
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

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (f *FCloser) Read(p []byte) (int, error) { return 0, errRead }
func (f *FCloser) Close() error               { return nil }

// AssertFileExists reports an error when path is missing, e.g. an export or queue file.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertDirExists reports an error when path is missing or not a directory.
func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		t.Errorf("directory does not exist: %s", path)
	case err != nil:
		t.Errorf("stat %s: %v", path, err)
	case !info.IsDir():
		t.Errorf("path is not a directory: %s", path)
	}
}

// MustReadFile returns the contents of path or stops the test.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}
