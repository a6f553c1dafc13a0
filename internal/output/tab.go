// Package output provides translation result writers.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/txmap/internal/query"
	"github.com/inodb/txmap/internal/translate"
)

// Missing is written in place of the chromosome and position of unresolved queries.
const Missing = "-"

// TabWriter writes one tab-delimited line per query:
//
//	transcript_id  offset  chromosome  position
//
// Unresolved queries get "-" for chromosome and position. No header is written.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes the result for a single query.
func (tw *TabWriter) Write(q *query.Query, r translate.Result) error {
	chrom, pos := Missing, Missing
	if r.Found {
		chrom = r.Chrom
		pos = strconv.FormatInt(r.Pos, 10)
	}

	values := []string{
		q.TranscriptID,
		strconv.FormatInt(q.Offset, 10),
		chrom,
		pos,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// MultiWriter duplicates results to every writer, in order.
type MultiWriter []translate.ResultWriter

// Write writes the result to each writer, stopping at the first error.
func (m MultiWriter) Write(q *query.Query, r translate.Result) error {
	for _, w := range m {
		if err := w.Write(q, r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every writer, stopping at the first error.
func (m MultiWriter) Flush() error {
	for _, w := range m {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
