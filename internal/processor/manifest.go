package processor

import (
	"fmt"
	"os"
	"sync"
)

// ManifestName is the file name of the segment manifest inside the clip directory
const ManifestName = "segments.txt"

// NoFile stands in for the clip name of a failed extraction
const NoFile = "<no file>"

// Manifest is the plain-text record of extracted segments, one line per
// segment in completion order. It is safe for concurrent use.
type Manifest struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	succeeded int
}

// CreateManifest creates (or truncates) the manifest at path
func CreateManifest(path string) (*Manifest, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}
	return &Manifest{file: f, path: path}, nil
}

// ManifestLine formats one manifest entry
func ManifestLine(name string, seg Segment, ok bool) string {
	if !ok {
		name = NoFile
	}
	return fmt.Sprintf("%s: (%.2f, %.2f)\n", name, seg.Start, seg.End)
}

// Record appends the outcome of one clip and counts it when it succeeded
func (m *Manifest) Record(name string, seg Segment, ok bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ok {
		m.succeeded++
	}
	if _, err := m.file.WriteString(ManifestLine(name, seg, ok)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Succeeded returns the number of successful clips recorded so far
func (m *Manifest) Succeeded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.succeeded
}

// Path returns the manifest file path
func (m *Manifest) Path() string {
	return m.path
}

// Close flushes and closes the manifest file
func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
