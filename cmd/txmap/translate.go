package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/txmap/internal/duckdb"
	"github.com/inodb/txmap/internal/output"
	"github.com/inodb/txmap/internal/query"
	"github.com/inodb/txmap/internal/transcript"
	"github.com/inodb/txmap/internal/translate"
)

const logFileName = "translate.log"

func newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate transcript offsets in a query file to genomic positions",
		Long: `Translate every query (transcript_id<TAB>offset) to a genomic position.

The transcript table is a tab-delimited file with columns transcript_id,
chromosome, 0-based start and CIGAR, or a DuckDB database written by
'txmap import'. One line is written per query, in input order:

  transcript_id<TAB>offset<TAB>chromosome<TAB>position

Queries whose transcript is unknown, or whose offset lies beyond the aligned
transcript, get '-' for chromosome and position. An offset inside an insertion
maps to the genomic position just before the insertion.`,
		Example: `  txmap translate -t transcripts.txt -q queries.txt -o results
  txmap translate -t transcripts.txt.gz -q queries.txt -o results --compress lz4
  txmap translate --db transcripts.duckdb -q queries.txt -o results --run-id batch-7`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"transcripts":    "tfile",
				"queries":        "qfile",
				"output-dir":     "ofolder",
				"output-name":    "output-name",
				"db":             "db",
				"run-id":         "run-id",
				"compress":       "compress",
				"skip-malformed": "skip-malformed",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), translateOptions{
				transcripts:   viper.GetString("transcripts"),
				queries:       viper.GetString("queries"),
				outputDir:     viper.GetString("output-dir"),
				outputName:    viper.GetString("output-name"),
				dbPath:        viper.GetString("db"),
				runID:         viper.GetString("run-id"),
				compression:   viper.GetString("compress"),
				skipMalformed: viper.GetBool("skip-malformed"),
				verbose:       viper.GetBool("verbose"),
			})
		},
	}

	f := cmd.Flags()
	f.StringP("tfile", "t", "", "Transcripts file (transcript_id, chromosome, start, CIGAR)")
	f.StringP("qfile", "q", "", "Queries file (transcript_id, offset)")
	f.StringP("ofolder", "o", "", "Output folder for the results and translate.log")
	f.String("output-name", "output.txt", "Name of the results file inside the output folder")
	f.String("db", "", "DuckDB database: transcript source when --tfile is not set, and results sink")
	f.String("run-id", "", "Run identifier for results stored with --db (default: query file name and time)")
	f.String("compress", output.CompressNone, "Compress the results file: lz4 or lz4hc")
	f.Bool("skip-malformed", false, "Skip malformed query lines with a warning instead of aborting")

	return cmd
}

// bindFlags binds viper keys to this command's flags. Binding happens at run
// time because several commands share keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

type translateOptions struct {
	transcripts   string
	queries       string
	outputDir     string
	outputName    string
	dbPath        string
	runID         string
	compression   string
	skipMalformed bool
	verbose       bool
}

func (o translateOptions) validate() error {
	if o.transcripts == "" && o.dbPath == "" {
		return usagef("provide -t/--tfile or --db")
	}
	if o.queries == "" {
		return usagef("provide -q/--qfile")
	}
	if o.outputDir == "" {
		return usagef("provide -o/--ofolder")
	}
	if o.transcripts != "" {
		if err := requireFile(o.transcripts, "transcripts"); err != nil {
			return err
		}
	}
	if err := requireFile(o.queries, "queries"); err != nil {
		return err
	}
	if info, err := os.Stat(o.outputDir); err != nil || !info.IsDir() {
		return usagef("output folder path %s does not exist", o.outputDir)
	}
	switch o.compression {
	case output.CompressNone, output.CompressLZ4, output.CompressLZ4HC:
	default:
		return usagef("unknown compression %q (use lz4 or lz4hc)", o.compression)
	}
	return nil
}

func requireFile(path, what string) error {
	if path == "-" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return usagef("%s file path %s does not exist", what, path)
	}
	return nil
}

func runTranslate(ctx context.Context, opts translateOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(os.Stderr, filepath.Join(opts.outputDir, logFileName), opts.verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("started processing the queries")

	var store *duckdb.Store
	if opts.dbPath != "" {
		store, err = duckdb.Open(opts.dbPath)
		if err != nil {
			logger.Error("open database", zap.String("path", opts.dbPath), zap.Error(err))
			return err
		}
		defer store.Close()
	}

	tbl, err := loadTable(opts, store, logger)
	if err != nil {
		logger.Error("load transcripts", zap.Error(err))
		return err
	}

	qr, err := query.NewReader(opts.queries)
	if err != nil {
		logger.Error("open queries", zap.Error(err))
		return err
	}
	defer qr.Close()

	outPath := filepath.Join(opts.outputDir, opts.outputName+output.Extension(opts.compression))
	outFile, err := output.Create(outPath, opts.compression)
	if err != nil {
		logger.Error("create output", zap.Error(err))
		return err
	}
	defer outFile.Close()

	writers := output.MultiWriter{output.NewTabWriter(outFile)}
	if store != nil {
		runID := opts.runID
		if runID == "" {
			runID = fmt.Sprintf("%s@%s", filepath.Base(opts.queries), time.Now().UTC().Format(time.RFC3339Nano))
		}
		removed, err := store.ClearRun(runID)
		if err != nil {
			logger.Error("clear previous results", zap.String("run_id", runID), zap.Error(err))
			return err
		}
		if removed > 0 {
			logger.Warn("replacing stored results of an earlier run",
				zap.String("run_id", runID), zap.Int64("rows", removed))
		}
		rw, err := store.NewResultWriter(runID)
		if err != nil {
			logger.Error("open results table", zap.Error(err))
			return err
		}
		defer rw.Close()
		writers = append(writers, rw)
		logger.Info("storing results", zap.String("db", store.Path()), zap.String("run_id", runID))
	}

	batch := translate.NewBatch(translate.NewTranslator(tbl))
	batch.SetSkipMalformed(opts.skipMalformed)
	batch.SetLogger(logger)

	if _, err := batch.Run(ctx, qr, writers); err != nil {
		logger.Error("process queries", zap.String("path", opts.queries), zap.Error(err))
		return err
	}

	if err := outFile.Close(); err != nil {
		logger.Error("close output", zap.Error(err))
		return err
	}

	logger.Info("finished processing the queries",
		zap.String("output", outPath),
		zap.Int("lines", qr.LineNumber()))
	return nil
}

// loadTable reads the transcript table from the TSV file if given, else from the store.
func loadTable(opts translateOptions, store *duckdb.Store, logger *zap.Logger) (*transcript.Table, error) {
	if opts.transcripts != "" {
		l := transcript.NewLoader(opts.transcripts)
		l.SetLogger(logger)
		return l.Load()
	}

	tbl, err := store.LoadTable()
	if err != nil {
		return nil, fmt.Errorf("load transcripts from %s: %w", store.Path(), err)
	}
	logger.Info("loaded transcripts", zap.String("db", store.Path()), zap.Int("count", tbl.Len()))
	return tbl, nil
}
