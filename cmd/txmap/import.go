package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/txmap/internal/duckdb"
	"github.com/inodb/txmap/internal/transcript"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a transcript table and store it in DuckDB",
		Long: `Validate a transcript table and store it in a DuckDB database for reuse
with 'txmap translate --db'. Any malformed row or CIGAR string aborts the import
and leaves the database unchanged.`,
		Example: `  txmap import -t transcripts.txt --db transcripts.duckdb
  txmap import -t transcripts.txt.gz --db ~/.txmap/grch38.duckdb`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"transcripts": "tfile",
				"db":          "db",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(viper.GetString("transcripts"), viper.GetString("db"), viper.GetBool("verbose"))
		},
	}

	cmd.Flags().StringP("tfile", "t", "", "Transcripts file (transcript_id, chromosome, start, CIGAR)")
	cmd.Flags().String("db", "", "Output DuckDB database")

	return cmd
}

func runImport(transcriptsPath, dbPath string, verbose bool) error {
	if transcriptsPath == "" {
		return usagef("provide -t/--tfile")
	}
	if dbPath == "" {
		return usagef("provide --db")
	}
	if err := requireFile(transcriptsPath, "transcripts"); err != nil {
		return err
	}

	// Ensure output has a DuckDB extension
	if ext := filepath.Ext(dbPath); ext != ".duckdb" && ext != ".db" {
		dbPath += ".duckdb"
	}

	logger, closeLog, err := newLogger(os.Stderr, "", verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	loader := transcript.NewLoader(transcriptsPath)
	loader.SetLogger(logger)
	tbl, err := loader.Load()
	if err != nil {
		return err
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteTable(tbl); err != nil {
		return fmt.Errorf("write transcripts: %w", err)
	}

	if transcriptsPath != "-" {
		fp, err := duckdb.StatFile(transcriptsPath)
		if err != nil {
			return fmt.Errorf("stat transcripts file: %w", err)
		}
		if err := store.RecordSource(fp, tbl.Len()); err != nil {
			return err
		}
	}

	count, err := store.TranscriptCount()
	if err != nil {
		return err
	}

	logger.Info("import complete",
		zap.String("db", store.Path()),
		zap.Int("transcripts", count),
		zap.Strings("chromosomes", tbl.Chromosomes()))
	fmt.Fprintf(os.Stderr, "Imported %d transcripts on %d chromosomes into %s\n",
		count, len(tbl.Chromosomes()), dbPath)
	return nil
}
