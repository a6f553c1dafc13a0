package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/txmap/internal/query"
	"github.com/inodb/txmap/internal/translate"
)

// ResultWriter appends translation results for one run to the translation_results table.
// Unresolved queries are stored with NULL chromosome and position.
type ResultWriter struct {
	runID    string
	seq      int64
	conn     *sql.Conn
	appender *goduckdb.Appender
}

// NewResultWriter starts writing results under runID. Close must be called
// to release the connection.
func (s *Store) NewResultWriter(runID string) (*ResultWriter, error) {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "translation_results")
		return err
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create appender: %w", err)
	}

	return &ResultWriter{runID: runID, conn: conn, appender: appender}, nil
}

// Write appends the result for a single query.
func (w *ResultWriter) Write(q *query.Query, r translate.Result) error {
	var chrom, pos driver.Value
	if r.Found {
		chrom, pos = r.Chrom, r.Pos
	}
	if err := w.appender.AppendRow(w.runID, w.seq, q.TranscriptID, q.Offset, chrom, pos); err != nil {
		return fmt.Errorf("append translation result: %w", err)
	}
	w.seq++
	return nil
}

// Flush writes buffered rows to the database.
func (w *ResultWriter) Flush() error {
	return w.appender.Flush()
}

// Close flushes remaining rows and releases the connection.
func (w *ResultWriter) Close() error {
	err := w.appender.Close()
	if cerr := w.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// StoredResult is a translation result read back from the store.
type StoredResult struct {
	Query  query.Query
	Result translate.Result
}

// LookupRun returns the results of a run in query order.
func (s *Store) LookupRun(runID string) ([]StoredResult, error) {
	rows, err := s.db.Query(`SELECT transcript_id, query_offset, chrom, pos
		FROM translation_results
		WHERE run_id=?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query translation results: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var (
			sr    StoredResult
			chrom sql.NullString
			pos   sql.NullInt64
		)
		if err := rows.Scan(&sr.Query.TranscriptID, &sr.Query.Offset, &chrom, &pos); err != nil {
			return nil, fmt.Errorf("scan translation result: %w", err)
		}
		if chrom.Valid && pos.Valid {
			sr.Result = translate.Result{Found: true, Chrom: chrom.String, Pos: pos.Int64}
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translation results: %w", err)
	}
	return out, nil
}

// ClearRun removes the stored results of a run and returns the number of rows removed.
func (s *Store) ClearRun(runID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM translation_results WHERE run_id=?", runID)
	if err != nil {
		return 0, fmt.Errorf("clear run %s: %w", runID, err)
	}
	return res.RowsAffected()
}
