package duckdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/txmap/internal/cigar"
	"github.com/inodb/txmap/internal/query"
	"github.com/inodb/txmap/internal/transcript"
	"github.com/inodb/txmap/internal/translate"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixtureTable() *transcript.Table {
	tbl := transcript.NewTable()
	tbl.Add(&transcript.Record{ID: "TR1", Chrom: "CHR1", Start: 3, Cigar: cigar.MustParse("8M7D6M2I2M11D7M")})
	tbl.Add(&transcript.Record{ID: "TR2", Chrom: "CHR2", Start: 10, Cigar: cigar.MustParse("20M")})
	return tbl
}

// --- Transcript table tests ---

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "", s.Path())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "txmap.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestWriteAndLoadTable(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteTable(fixtureTable()))

	n, err := s.TranscriptCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tbl, err := s.LoadTable()
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	tr1 := tbl.Get("TR1")
	require.NotNil(t, tr1)
	assert.Equal(t, "CHR1", tr1.Chrom)
	assert.Equal(t, int64(3), tr1.Start)
	assert.Equal(t, cigar.MustParse("8M7D6M2I2M11D7M"), tr1.Cigar)

	// Loaded tables translate exactly like the source table.
	got := translate.NewTranslator(tbl).Lookup("TR1", 13)
	assert.Equal(t, translate.Result{Found: true, Chrom: "CHR1", Pos: 23}, got)
}

func TestWriteTable_Replaces(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteTable(fixtureTable()))

	other := transcript.NewTable()
	other.Add(&transcript.Record{ID: "TR9", Chrom: "CHR9", Start: 0, Cigar: cigar.MustParse("5M")})
	require.NoError(t, s.WriteTable(other))

	tbl, err := s.LoadTable()
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.NotNil(t, tbl.Get("TR9"))
	assert.Nil(t, tbl.Get("TR1"))
}

func TestWriteTable_FailureKeepsStoredTable(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteTable(fixtureTable()))

	bad := transcript.NewTable()
	bad.Add(&transcript.Record{ID: "\xff\xff\xff", Chrom: "CHR1", Start: 0, Cigar: cigar.MustParse("5M")})
	require.Error(t, s.WriteTable(bad))

	n, err := s.TranscriptCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tbl, err := s.LoadTable()
	require.NoError(t, err)
	assert.NotNil(t, tbl.Get("TR1"))
}

func TestWriteTable_GenomeEnd(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteTable(fixtureTable()))

	var end int64
	require.NoError(t, s.DB().QueryRow(`SELECT genome_end FROM transcripts WHERE id='TR1'`).Scan(&end))
	assert.Equal(t, int64(44), end)
}

func TestLoadTable_CorruptCigar(t *testing.T) {
	s := openInMemory(t)
	_, err := s.DB().Exec(`INSERT INTO transcripts VALUES ('bad', 'CHR1', 0, 17, '8M9S')`)
	require.NoError(t, err)

	tbl, err := s.LoadTable()
	require.Error(t, err)
	assert.Nil(t, tbl)
	assert.ErrorIs(t, err, cigar.ErrInvalid)
}

func TestLoadTable_Empty(t *testing.T) {
	s := openInMemory(t)
	tbl, err := s.LoadTable()
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestRecordSource(t *testing.T) {
	s := openInMemory(t)

	path := filepath.Join(t.TempDir(), "transcripts.txt")
	require.NoError(t, os.WriteFile(path, []byte("TR2\tCHR2\t10\t20M\n"), 0644))
	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(16), fp.Size)

	require.NoError(t, s.RecordSource(fp, 1))

	sources, err := s.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, path, sources[0].Path)
	assert.Equal(t, int64(16), sources[0].Size)
	assert.Equal(t, int64(1), sources[0].TranscriptCount)
	assert.False(t, sources[0].ImportedAt.IsZero())
}

func TestStatFile_Missing(t *testing.T) {
	_, err := StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

// --- Translation result tests ---

func TestResultWriter(t *testing.T) {
	s := openInMemory(t)

	w, err := s.NewResultWriter("run-1")
	require.NoError(t, err)

	rows := []StoredResult{
		{query.Query{TranscriptID: "TR1", Offset: 4}, translate.Result{Found: true, Chrom: "CHR1", Pos: 7}},
		{query.Query{TranscriptID: "TR3", Offset: 0}, translate.NotFound},
		{query.Query{TranscriptID: "TR2", Offset: 0}, translate.Result{Found: true, Chrom: "CHR2", Pos: 10}},
	}
	for _, r := range rows {
		q := r.Query
		require.NoError(t, w.Write(&q, r.Result))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	got, err := s.LookupRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	other, err := s.LookupRun("run-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	removed, err := s.ClearRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	got, err = s.LookupRun("run-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
