// Package query reads translation queries from tab-delimited files.
package query

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/inodb/txmap/internal/fileio"
)

// Query asks for the genomic position of a transcript-local offset.
type Query struct {
	TranscriptID string
	Offset       int64 // 0-based position along the transcript
}

// Reader reads queries with columns:
//
//	transcript_id  offset
type Reader struct {
	reader     *fileio.Reader
	closer     io.Closer
	lineNumber int
}

// NewReader opens a query file. Gzip and zstd input is supported; use "-" for stdin.
func NewReader(path string) (*Reader, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	return &Reader{reader: r, closer: r}, nil
}

// NewReaderFrom creates a query reader over r.
func NewReaderFrom(r io.Reader) (*Reader, error) {
	br, err := fileio.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{reader: br}, nil
}

// Next reads the next query.
// Returns nil, nil when there are no more queries.
func (r *Reader) Next() (*Query, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read query line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		return r.parseLine(line)
	}
}

func (r *Reader) parseLine(line string) (*Query, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected 2 columns, found %d", len(fields)),
		}
	}
	if fields[0] == "" {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: "empty transcript ID",
		}
	}
	if !utf8.ValidString(fields[0]) {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: "transcript ID is not valid UTF-8",
		}
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("invalid offset: %s", fields[1]),
		}
	}

	return &Query{TranscriptID: fields[0], Offset: offset}, nil
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ParseError represents a malformed query row.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query parse error at line %d: %s", e.Line, e.Message)
}
