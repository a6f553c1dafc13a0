package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/txmap/internal/query"
	"github.com/inodb/txmap/internal/transcript"
)

type written struct {
	q query.Query
	r Result
}

type memWriter struct {
	rows     []written
	flushes  int
	writeErr error
}

func (m *memWriter) Write(q *query.Query, r Result) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.rows = append(m.rows, written{*q, r})
	return nil
}

func (m *memWriter) Flush() error {
	m.flushes++
	return nil
}

func fixtureTranslator() *Translator {
	tbl := transcript.NewTable()
	tbl.Add(record("TR1", "CHR1", 3, "8M7D6M2I2M11D7M"))
	tbl.Add(record("TR2", "CHR2", 10, "20M"))
	return NewTranslator(tbl)
}

func queries(t *testing.T, s string) *query.Reader {
	t.Helper()
	r, err := query.NewReaderFrom(strings.NewReader(s))
	require.NoError(t, err)
	return r
}

func TestBatch_Run(t *testing.T) {
	b := NewBatch(fixtureTranslator())
	w := &memWriter{}

	stats, err := b.Run(context.Background(), queries(t, "TR1\t4\nTR2\t0\nTR1\t13\nTR2\t10\nTR3\t0\nTR2\t20\n"), w)
	require.NoError(t, err)

	assert.Equal(t, Stats{Queries: 6, Resolved: 4, NotFound: 2}, stats)
	assert.Equal(t, []written{
		{query.Query{TranscriptID: "TR1", Offset: 4}, resolved("CHR1", 7)},
		{query.Query{TranscriptID: "TR2", Offset: 0}, resolved("CHR2", 10)},
		{query.Query{TranscriptID: "TR1", Offset: 13}, resolved("CHR1", 23)},
		{query.Query{TranscriptID: "TR2", Offset: 10}, resolved("CHR2", 20)},
		{query.Query{TranscriptID: "TR3", Offset: 0}, NotFound},
		{query.Query{TranscriptID: "TR2", Offset: 20}, NotFound},
	}, w.rows)
	assert.Equal(t, 1, w.flushes)
}

func TestBatch_Empty(t *testing.T) {
	w := &memWriter{}
	stats, err := NewBatch(fixtureTranslator()).Run(context.Background(), queries(t, ""), w)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 1, w.flushes)
}

func TestBatch_MalformedAborts(t *testing.T) {
	w := &memWriter{}
	stats, err := NewBatch(fixtureTranslator()).Run(context.Background(), queries(t, "TR1\t4\nTR1\tfour\nTR2\t0\n"), w)
	require.Error(t, err)

	var perr *query.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 1, stats.Queries)
	assert.Len(t, w.rows, 1)
}

func TestBatch_SkipMalformed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	b := NewBatch(fixtureTranslator())
	b.SetSkipMalformed(true)
	b.SetLogger(zap.New(core))

	w := &memWriter{}
	stats, err := b.Run(context.Background(), queries(t, "TR1\t4\nTR1\nTR2\t0\n"), w)
	require.NoError(t, err)

	assert.Equal(t, Stats{Queries: 2, Resolved: 2, Skipped: 1}, stats)
	require.Len(t, w.rows, 2)
	assert.Equal(t, "TR2", w.rows[1].q.TranscriptID)

	require.Equal(t, 1, logs.FilterMessage("skipping malformed query").Len())
	assert.Equal(t, int64(2), logs.All()[0].ContextMap()["line"])
}

func TestBatch_WriteError(t *testing.T) {
	w := &memWriter{writeErr: errors.New("disk full")}
	_, err := NewBatch(fixtureTranslator()).Run(context.Background(), queries(t, "TR1\t4\n"), w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &memWriter{}
	_, err := NewBatch(fixtureTranslator()).Run(ctx, queries(t, "TR1\t4\n"), w)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, w.rows)
}

func TestBatch_LogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	b := NewBatch(fixtureTranslator())
	b.SetLogger(zap.New(core))

	_, err := b.Run(context.Background(), queries(t, "TR1\t4\nTR9\t1\n"), &memWriter{})
	require.NoError(t, err)

	summary := logs.FilterMessage("processed queries").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].ContextMap()["queries"])
	assert.Equal(t, int64(1), summary[0].ContextMap()["not_found"])
}
