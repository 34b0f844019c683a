package partuploader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// FilePartProvider reads byte-range parts from a file on disk.
// Safe for parallel part reads.
type FilePartProvider struct {
	file     *os.File
	partSize int64
	fileSize int64
	numParts int
	mu       sync.Mutex
}

// NewFilePartProvider creates a PartProvider splitting the file at path into
// partSize-sized parts. The last part may be shorter.
func NewFilePartProvider(path string, partSize int64) (*FilePartProvider, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return &FilePartProvider{
		file:     file,
		partSize: partSize,
		fileSize: info.Size(),
		numParts: NumParts(info.Size(), partSize),
	}, nil
}

// NumParts returns the total number of parts.
func (p *FilePartProvider) NumParts() int {
	return p.numParts
}

// PartSize returns the size of the part at the given index.
func (p *FilePartProvider) PartSize(index int) int64 {
	_, length := PartRange(index+1, p.partSize, p.fileSize)
	return length
}

// Part returns a reader for the part at the given index.
// The data is read into memory so retried attempts can rewind.
func (p *FilePartProvider) Part(index int) (io.Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset, length := PartRange(index+1, p.partSize, p.fileSize)

	if _, err := p.file.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to position %d for part %d: %w", offset, index+1, err)
	}

	part := make([]byte, length)
	n, err := io.ReadFull(p.file, part)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read part %d: %w", index+1, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("unexpected end of file at part %d", index+1)
	}

	return bytes.NewReader(part[:n]), nil
}

// Close closes the underlying file.
func (p *FilePartProvider) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ByteSlicePartProvider provides parts from pre-loaded byte slices.
type ByteSlicePartProvider struct {
	parts [][]byte
}

// NewByteSlicePartProvider creates a PartProvider from byte slices.
func NewByteSlicePartProvider(parts [][]byte) *ByteSlicePartProvider {
	return &ByteSlicePartProvider{parts: parts}
}

// NumParts returns the total number of parts.
func (p *ByteSlicePartProvider) NumParts() int {
	return len(p.parts)
}

// PartSize returns the size of the part at the given index.
func (p *ByteSlicePartProvider) PartSize(index int) int64 {
	if index < 0 || index >= len(p.parts) {
		return 0
	}
	return int64(len(p.parts[index]))
}

// Part returns a reader for the part at the given index.
func (p *ByteSlicePartProvider) Part(index int) (io.Reader, error) {
	if index < 0 || index >= len(p.parts) {
		return nil, fmt.Errorf("part index %d out of range [0, %d)", index, len(p.parts))
	}
	return bytes.NewReader(p.parts[index]), nil
}
