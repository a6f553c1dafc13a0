package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"unicode/utf8"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/txmap/internal/cigar"
	"github.com/inodb/txmap/internal/transcript"
)

// WriteTable replaces the stored transcripts with the contents of tbl using the
// Appender API. The replacement runs in one transaction: on any error the
// previously stored table is kept.
func (s *Store) WriteTable(tbl *transcript.Table) (err error) {
	records := tbl.Records()
	for _, r := range records {
		if !utf8.ValidString(r.ID) || !utf8.ValidString(r.Chrom) {
			return fmt.Errorf("transcript %q: ID and chromosome must be valid UTF-8", r.ID)
		}
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if _, err := conn.ExecContext(ctx, "DELETE FROM transcripts"); err != nil {
		return fmt.Errorf("clear transcripts: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "transcripts")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, r := range records {
		if err := appender.AppendRow(r.ID, r.Chrom, r.Start, r.End(), r.Cigar.String()); err != nil {
			appender.Close()
			return fmt.Errorf("append transcript %s: %w", r.ID, err)
		}
	}

	// Close flushes the remaining rows.
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush transcripts: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit transcripts: %w", err)
	}
	return nil
}

// LoadTable reads all stored transcripts into a new table. CIGAR strings are
// validated again, so a corrupt row fails the whole load.
func (s *Store) LoadTable() (*transcript.Table, error) {
	rows, err := s.db.Query(`SELECT id, chrom, start, cigar FROM transcripts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	tbl := transcript.NewTable()
	for rows.Next() {
		var (
			r   transcript.Record
			raw string
		)
		if err := rows.Scan(&r.ID, &r.Chrom, &r.Start, &raw); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		if r.Start < 0 {
			return nil, fmt.Errorf("transcript %s: negative start position %d", r.ID, r.Start)
		}
		r.Cigar, err = cigar.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("transcript %s: %w", r.ID, err)
		}
		rec := r
		tbl.Add(&rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts: %w", err)
	}
	return tbl, nil
}

// TranscriptCount returns the number of stored transcripts.
func (s *Store) TranscriptCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM transcripts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count transcripts: %w", err)
	}
	return n, nil
}
