// Package transcript provides the transcript table used for coordinate translation.
package transcript

import (
	"sort"

	"github.com/inodb/txmap/internal/cigar"
)

// Record is a transcript aligned to a chromosome.
type Record struct {
	ID    string      // Transcript ID (e.g., TR1)
	Chrom string      // Chromosome name
	Start int64       // Genomic position of the first aligned base (0-based)
	Cigar cigar.Cigar // Alignment of the transcript to the genome
}

// Length returns the number of transcript bases covered by the alignment.
func (r *Record) Length() int64 {
	return r.Cigar.TranscriptLen()
}

// End returns the genomic position one past the last aligned base.
func (r *Record) End() int64 {
	return r.Start + r.Cigar.GenomeLen()
}

// Table holds transcripts indexed by ID. It is built once and only read afterwards,
// so it can be shared between goroutines without locking.
type Table struct {
	records map[string]*Record
}

// NewTable creates a new empty table.
func NewTable() *Table {
	return &Table{
		records: make(map[string]*Record),
	}
}

// Add adds a record to the table, replacing any record with the same ID.
// It reports whether a previous record was replaced.
func (t *Table) Add(r *Record) bool {
	_, replaced := t.records[r.ID]
	t.records[r.ID] = r
	return replaced
}

// Get returns the transcript with the given ID, or nil if not found.
func (t *Table) Get(id string) *Record {
	return t.records[id]
}

// Len returns the number of transcripts in the table.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns all records sorted by ID.
func (t *Table) Records() []*Record {
	out := make([]*Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Chromosomes returns a sorted list of chromosomes referenced by the table.
func (t *Table) Chromosomes() []string {
	seen := make(map[string]bool)
	for _, r := range t.records {
		seen[r.Chrom] = true
	}
	chroms := make([]string, 0, len(seen))
	for c := range seen {
		chroms = append(chroms, c)
	}
	sort.Strings(chroms)
	return chroms
}
