// Package fileio opens tab-delimited input files, transparently decompressing them.
package fileio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Reader is a decompressing reader over an input file.
type Reader struct {
	*bufio.Reader
	closers []io.Closer
}

// Open opens path for reading. Gzip and zstd content is detected by magic
// bytes, so the file extension does not matter. Use "-" for stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r.closers = append(r.closers, f)
	return r, nil
}

// NewReader wraps r, decompressing it if it starts with a gzip or zstd header.
// The caller keeps ownership of r.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read header: %w", err)
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &Reader{Reader: bufio.NewReader(gz), closers: []io.Closer{gz}}, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		rc := zr.IOReadCloser()
		return &Reader{Reader: bufio.NewReader(rc), closers: []io.Closer{rc}}, nil
	default:
		return &Reader{Reader: br}, nil
	}
}

// Close releases the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
