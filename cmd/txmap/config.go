package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/txmap/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage txmap configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.txmap.yaml.

Valid keys: transcripts, queries, output-dir, output-name, db, compress,
skip-malformed and verbose. Values are checked before they are written.`,
		Example: `  txmap config                        # show all config
  txmap config set compress lz4       # compress results by default
  txmap config set skip-malformed on  # skip malformed query lines
  txmap config get db                 # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

// configKeys lists the settings that can be persisted, with a parser that
// validates a value given on the command line. Keys match the viper keys
// bound by translate and import.
var configKeys = map[string]func(string) (any, error){
	"transcripts":    parseString,
	"queries":        parseString,
	"output-dir":     parseString,
	"output-name":    parseOutputName,
	"db":             parseString,
	"compress":       parseCompression,
	"skip-malformed": parseBool,
	"verbose":        parseBool,
}

func configKeyNames() []string {
	names := make([]string, 0, len(configKeys))
	for k := range configKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func lookupConfigKey(key string) (func(string) (any, error), error) {
	parse, ok := configKeys[key]
	if !ok {
		return nil, usagef("unknown config key %q (valid keys: %s)", key, strings.Join(configKeyNames(), ", "))
	}
	return parse, nil
}

func parseString(v string) (any, error) {
	if v == "" {
		return nil, usagef("empty value")
	}
	return v, nil
}

func parseOutputName(v string) (any, error) {
	if v == "" || strings.ContainsRune(v, filepath.Separator) {
		return nil, usagef("output name %q must be a plain file name", v)
	}
	return v, nil
}

func parseCompression(v string) (any, error) {
	switch v {
	case "none":
		return output.CompressNone, nil
	case output.CompressLZ4, output.CompressLZ4HC:
		return v, nil
	}
	return nil, usagef("unknown compression %q (use none, lz4 or lz4hc)", v)
}

func parseBool(v string) (any, error) {
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return nil, usagef("invalid boolean %q (use true or false)", v)
}

// runConfigShow prints the persisted and environment settings for the known keys.
func runConfigShow(w io.Writer) error {
	settings := make(map[string]any)
	for _, key := range configKeyNames() {
		if viper.InConfig(key) || os.Getenv(envKey(key)) != "" {
			settings[key] = viper.Get(key)
		}
	}
	if len(settings) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/.txmap.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, key, value string) error {
	parse, err := lookupConfigKey(key)
	if err != nil {
		return err
	}
	v, err := parse(value)
	if err != nil {
		return usagef("%s: %v", key, err)
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".txmap.yaml")
	}

	// Only persisted keys are written back; flag and environment values stay out of the file.
	file := viper.New()
	file.SetConfigFile(cfgFile)
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	file.Set(key, v)
	if err := file.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	viper.Set(key, v)

	fmt.Fprintf(w, "Set %s = %v in %s\n", key, v, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if _, err := lookupConfigKey(key); err != nil {
		return err
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}

func envKey(key string) string {
	return "TXMAP_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
