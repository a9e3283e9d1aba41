// Package segbuf implements the mutable segment-data buffer the linker
// copies module section bytes into and patches relocations against. It
// generalizes the inline []byte handling yld/linker.go does for its merged
// code and data buffers to an arbitrary number of named segments.
package segbuf

import "fmt"

// Buffer is a contiguous, fixed-length byte vector. Its length must always
// equal the owning segment's declared length.
type Buffer struct {
	data []byte
}

// New returns a zero-filled buffer of n bytes.
func New(n int) *Buffer {
	return &Buffer{data: make([]byte, n)}
}

// FromBytes wraps an existing slice without copying.
func FromBytes(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Len returns the buffer's length.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the full underlying slice. Callers must not retain it past
// the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Concat returns a new buffer holding b's bytes followed by other's.
func (b *Buffer) Concat(other *Buffer) *Buffer {
	out := make([]byte, 0, len(b.data)+len(other.data))
	out = append(out, b.data...)
	out = append(out, other.data...)
	return &Buffer{data: out}
}

// Update replaces the [offset, offset+length) slice with patch. It panics if
// the range is out of bounds or len(patch) != length, mirroring the
// caller-guarantees contract in segbuf's spec.
func (b *Buffer) Update(offset, length int, patch []byte) {
	if len(patch) != length {
		panic(fmt.Sprintf("segbuf: patch length %d != requested length %d", len(patch), length))
	}
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		panic(fmt.Sprintf("segbuf: update [%d,%d) out of bounds for buffer of length %d", offset, offset+length, len(b.data)))
	}
	copy(b.data[offset:offset+length], patch)
}

// Get returns the [offset, offset+length) slice, or an error if out of range.
func (b *Buffer) Get(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return nil, fmt.Errorf("segbuf: get [%d,%d) out of range for buffer of length %d", offset, offset+length, len(b.data))
	}
	return b.data[offset : offset+length], nil
}
