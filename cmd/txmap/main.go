// Package main provides the txmap command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError marks errors caused by bad arguments rather than bad data.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var uerr *usageError
		if errors.As(err, &uerr) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "txmap",
		Short: "Translate transcript coordinates to genomic coordinates",
		Long: `txmap maps 0-based transcript offsets to 0-based genomic positions using
a per-transcript alignment given as a CIGAR string (M, I and D operators).`,
		Example: `  # Translate queries, writing results/output.txt and results/translate.log
  txmap translate -t transcripts.txt -q queries.txt -o results

  # Store a validated transcript table in DuckDB and translate against it
  txmap import -t transcripts.txt --db transcripts.duckdb
  txmap translate --db transcripts.duckdb -q queries.txt -o results`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}
	root.SetVersionTemplate("txmap version {{.Version}}\n")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.txmap.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Also print info messages to stderr")
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newTranslateCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig reads the config file and TXMAP_* environment variables.
// A missing default config file is not an error.
func initConfig(cfgFile string) error {
	viper.SetEnvPrefix("txmap")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return usagef("read config %s: %v", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.SetConfigFile(filepath.Join(home, ".txmap.yaml"))
	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
