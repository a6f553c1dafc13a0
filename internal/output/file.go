package output

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4"
)

// Compression formats supported for output files.
const (
	CompressNone  = ""
	CompressLZ4   = "lz4"
	CompressLZ4HC = "lz4hc"
)

// File is an output file, optionally lz4-framed.
type File struct {
	io.Writer
	f      *os.File
	lz     *lz4.Writer
	closed bool
}

// Create creates (or truncates) the output file at path.
// compression is one of CompressNone, CompressLZ4 or CompressLZ4HC.
func Create(path, compression string) (*File, error) {
	switch compression {
	case CompressNone, CompressLZ4, CompressLZ4HC:
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	out := &File{Writer: f, f: f}
	switch compression {
	case CompressLZ4:
		out.lz = lz4.NewWriter(f)
	case CompressLZ4HC:
		out.lz = lz4.NewWriter(f)
		out.lz.Header = lz4.Header{CompressionLevel: 9}
	}
	if out.lz != nil {
		out.Writer = out.lz
	}
	return out, nil
}

// Close finishes the lz4 frame, if any, and closes the file.
// Calling Close more than once is a no-op.
func (o *File) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	if o.lz != nil {
		if err := o.lz.Close(); err != nil {
			o.f.Close()
			return fmt.Errorf("close lz4 stream: %w", err)
		}
	}
	return o.f.Close()
}

// Extension returns the file name suffix conventionally used for compression.
func Extension(compression string) string {
	switch compression {
	case CompressLZ4, CompressLZ4HC:
		return ".lz4"
	default:
		return ""
	}
}
