package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Source records a transcript file imported into the store.
type Source struct {
	FileFingerprint
	TranscriptCount int64
	ImportedAt      time.Time
}

// RecordSource notes that count transcripts were imported from the fingerprinted file.
func (s *Store) RecordSource(fp FileFingerprint, count int) error {
	_, err := s.db.Exec(`INSERT INTO transcript_sources (path, size, mod_time, transcript_count)
		VALUES (?, ?, ?, ?)`, fp.Path, fp.Size, fp.ModTime.UTC(), int64(count))
	if err != nil {
		return fmt.Errorf("record transcript source: %w", err)
	}
	return nil
}

// Sources returns imported transcript files, oldest first.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT path, size, mod_time, transcript_count, imported_at
		FROM transcript_sources ORDER BY imported_at`)
	if err != nil {
		return nil, fmt.Errorf("query transcript sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.Path, &src.Size, &src.ModTime, &src.TranscriptCount, &src.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan transcript source: %w", err)
		}
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript sources: %w", err)
	}
	return out, nil
}
