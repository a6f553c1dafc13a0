package translate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/txmap/internal/query"
)

// QuerySource yields queries in input order.
type QuerySource interface {
	// Next returns nil, nil when there are no more queries.
	Next() (*query.Query, error)
}

// ResultWriter receives one result per query, in input order.
type ResultWriter interface {
	Write(q *query.Query, r Result) error
	Flush() error
}

// Stats summarizes a batch run.
type Stats struct {
	Queries  int // queries translated and written
	Resolved int
	NotFound int
	Skipped  int // malformed query lines skipped
}

// Batch runs queries from a source through a Translator.
type Batch struct {
	translator    *Translator
	skipMalformed bool
	logger        *zap.Logger
}

// NewBatch creates a batch runner.
func NewBatch(tr *Translator) *Batch {
	return &Batch{
		translator: tr,
		logger:     zap.NewNop(),
	}
}

// SetSkipMalformed configures whether malformed query lines are skipped with a
// warning instead of aborting the run.
func (b *Batch) SetSkipMalformed(skip bool) {
	b.skipMalformed = skip
}

// SetLogger sets the logger for warning and info messages.
func (b *Batch) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Run translates every query from src and writes the results to w.
// A malformed query aborts the run unless skipping is enabled; results already
// written are flushed either way.
func (b *Batch) Run(ctx context.Context, src QuerySource, w ResultWriter) (Stats, error) {
	var stats Stats

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		q, err := src.Next()
		if err != nil {
			var perr *query.ParseError
			if b.skipMalformed && errors.As(err, &perr) {
				b.logger.Warn("skipping malformed query",
					zap.Int("line", perr.Line),
					zap.String("reason", perr.Message))
				stats.Skipped++
				continue
			}
			if ferr := w.Flush(); ferr != nil {
				b.logger.Error("flush results", zap.Error(ferr))
			}
			return stats, fmt.Errorf("read query: %w", err)
		}
		if q == nil {
			break
		}

		r := b.translator.Lookup(q.TranscriptID, q.Offset)
		if r.Found {
			stats.Resolved++
		} else {
			stats.NotFound++
			b.logger.Debug("query not found",
				zap.String("transcript", q.TranscriptID),
				zap.Int64("offset", q.Offset))
		}

		if err := w.Write(q, r); err != nil {
			return stats, fmt.Errorf("write result: %w", err)
		}
		stats.Queries++
	}

	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush results: %w", err)
	}

	b.logger.Info("processed queries",
		zap.Int("queries", stats.Queries),
		zap.Int("resolved", stats.Resolved),
		zap.Int("not_found", stats.NotFound),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}
