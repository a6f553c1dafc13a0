// Package translate maps transcript-local offsets to genomic coordinates.
//
// Offsets are 0-based. A negative offset is never resolved, even when the
// alignment begins with a match that a plain walk would extend to start-1.
package translate

import (
	"github.com/inodb/txmap/internal/cigar"
	"github.com/inodb/txmap/internal/transcript"
)

// Result is the outcome of translating one offset. The zero value means not found.
type Result struct {
	Found bool
	Chrom string
	Pos   int64 // 0-based genomic position, valid only when Found
}

// NotFound is returned when the transcript is unknown or the offset lies
// outside the aligned part of the transcript.
var NotFound = Result{}

// Translate walks the alignment of rec and returns the genomic position aligned
// to the 0-based transcript offset.
//
// An offset inside an insertion has no genomic base of its own and is pinned to
// the genomic position immediately before the insertion.
func Translate(rec *transcript.Record, offset int64) Result {
	if rec == nil || offset < 0 {
		return NotFound
	}

	txPos := int64(-1) // last transcript base consumed
	genomePos := rec.Start
	var last cigar.Kind

	for _, op := range rec.Cigar {
		switch op.Kind {
		case cigar.Match:
			txPos += op.Len
			genomePos += op.Len
		case cigar.Deletion:
			genomePos += op.Len
		case cigar.Insertion:
			txPos += op.Len
		}
		last = op.Kind
		if txPos >= offset {
			break
		}
	}

	if txPos < offset {
		return NotFound
	}
	if last == cigar.Insertion {
		return Result{Found: true, Chrom: rec.Chrom, Pos: genomePos - 1}
	}
	return Result{Found: true, Chrom: rec.Chrom, Pos: genomePos - (txPos - offset + 1)}
}

// TranscriptLookup finds transcripts by ID.
type TranscriptLookup interface {
	Get(id string) *transcript.Record
}

// Translator resolves queries against a transcript table.
type Translator struct {
	table TranscriptLookup
}

// NewTranslator creates a translator over the given table.
func NewTranslator(t TranscriptLookup) *Translator {
	return &Translator{table: t}
}

// Lookup translates offset on the transcript with the given ID.
// Unknown transcripts are not found.
func (tr *Translator) Lookup(id string, offset int64) Result {
	rec := tr.table.Get(id)
	if rec == nil {
		return NotFound
	}
	return Translate(rec, offset)
}
