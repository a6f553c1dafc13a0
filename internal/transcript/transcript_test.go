package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/txmap/internal/cigar"
)

func TestRecord_Extent(t *testing.T) {
	r := &Record{ID: "TR1", Chrom: "CHR1", Start: 3, Cigar: cigar.MustParse("8M7D6M2I2M11D7M")}
	assert.Equal(t, int64(25), r.Length())
	assert.Equal(t, int64(44), r.End())
}

func TestTable(t *testing.T) {
	tbl := NewTable()
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Records())

	assert.False(t, tbl.Add(&Record{ID: "b", Chrom: "CHR2", Cigar: cigar.MustParse("4M")}))
	assert.False(t, tbl.Add(&Record{ID: "a", Chrom: "CHR1", Cigar: cigar.MustParse("4M")}))
	assert.False(t, tbl.Add(&Record{ID: "c", Chrom: "CHR1", Cigar: cigar.MustParse("4M")}))
	assert.True(t, tbl.Add(&Record{ID: "c", Chrom: "CHR3", Cigar: cigar.MustParse("4M")}))

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"CHR1", "CHR2", "CHR3"}, tbl.Chromosomes())

	recs := tbl.Records()
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
