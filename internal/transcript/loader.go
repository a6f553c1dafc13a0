package transcript

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/inodb/txmap/internal/cigar"
	"github.com/inodb/txmap/internal/fileio"
)

// Loader reads a transcript table from a tab-delimited file with columns:
//
//	transcript_id  chromosome  start  cigar
//
// Any malformed row fails the whole load; partial tables are never returned.
type Loader struct {
	path   string
	logger *zap.Logger
}

// NewLoader creates a loader for the given file. Gzip and zstd input is supported.
func NewLoader(path string) *Loader {
	return &Loader{
		path:   path,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load reads all transcripts into a new table.
func (l *Loader) Load() (*Table, error) {
	r, err := fileio.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open transcripts file: %w", err)
	}
	defer r.Close()

	t, err := l.load(r)
	if err != nil {
		return nil, fmt.Errorf("load transcripts from %s: %w", l.path, err)
	}

	l.logger.Info("loaded transcripts",
		zap.String("path", l.path),
		zap.Int("count", t.Len()))
	return t, nil
}

// Read reads all transcripts from r into a new table.
func (l *Loader) Read(r io.Reader) (*Table, error) {
	br, err := fileio.NewReader(r)
	if err != nil {
		return nil, err
	}
	return l.load(br)
}

func (l *Loader) load(r *fileio.Reader) (*Table, error) {
	t := NewTable()
	lineNumber := 0

	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read transcript line: %w", err)
		}
		if line == "" && err == io.EOF {
			break
		}
		lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			rec, perr := ParseLine(line)
			if perr != nil {
				perr.Line = lineNumber
				return nil, perr
			}
			if t.Add(rec) {
				l.logger.Warn("duplicate transcript ID, keeping last",
					zap.String("id", rec.ID),
					zap.Int("line", lineNumber))
			}
		}

		if err == io.EOF {
			break
		}
	}

	return t, nil
}

// ParseLine parses one transcript row. The returned error has no line number set.
func ParseLine(line string) (*Record, *ParseError) {
	fields := strings.Split(line, "\t")
	if len(fields) < 4 {
		return nil, &ParseError{
			Message: fmt.Sprintf("expected 4 columns, found %d", len(fields)),
		}
	}
	if fields[0] == "" || fields[1] == "" {
		return nil, &ParseError{Message: "empty transcript ID or chromosome"}
	}
	if !utf8.ValidString(fields[0]) || !utf8.ValidString(fields[1]) {
		return nil, &ParseError{Message: "transcript ID or chromosome is not valid UTF-8"}
	}

	start, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid start position: %s", fields[2]),
			Err:     err,
		}
	}
	if start < 0 {
		return nil, &ParseError{
			Message: fmt.Sprintf("negative start position: %d", start),
		}
	}

	ops, err := cigar.Parse(strings.TrimSpace(fields[3]))
	if err != nil {
		return nil, &ParseError{
			Message: "invalid cigar",
			Err:     err,
		}
	}

	return &Record{
		ID:    fields[0],
		Chrom: fields[1],
		Start: start,
		Cigar: ops,
	}, nil
}

// ParseError represents a malformed transcript row.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcript parse error at line %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("transcript parse error at line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
