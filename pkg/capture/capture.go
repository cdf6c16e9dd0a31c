// Package capture supplies view images for frame-by-frame publishing.
// The transition engine only signals when a capture should happen; a Source
// decides how the bytes are produced.
package capture

import "fmt"

// Source produces one encoded view image per Grab call.
type Source interface {
	// Grab returns the next JPEG-encoded frame.
	Grab() ([]byte, error)

	// Size returns the frame dimensions in pixels (0,0 if unknown).
	Size() (width, height int)

	// Close releases the underlying device.
	Close() error
}

// Synthetic is a deterministic source for tests and headless operation.
// Every Grab returns a small counter-stamped payload.
type Synthetic struct {
	counter uint64
	closed  bool
}

// NewSynthetic creates a synthetic source.
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// Grab returns a deterministic placeholder frame.
func (s *Synthetic) Grab() ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("synthetic source closed")
	}
	s.counter++
	return []byte(fmt.Sprintf("frame-%d", s.counter)), nil
}

// Size returns zero dimensions; synthetic frames carry no geometry.
func (s *Synthetic) Size() (int, int) {
	return 0, 0
}

// Close marks the source closed.
func (s *Synthetic) Close() error {
	s.closed = true
	return nil
}
