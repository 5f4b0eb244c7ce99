package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lucrnz/ripzip/internal/cleanup"
	"github.com/lucrnz/ripzip/internal/config"
	"github.com/lucrnz/ripzip/internal/logging"
	"github.com/lucrnz/ripzip/internal/util"
	"github.com/lucrnz/ripzip/internal/version"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	quiet      bool
)

// Set by PersistentPreRunE / ExecuteContext for the running command.
var (
	cfg     *config.Config
	tracker *cleanup.Tracker
)

var rootCmd = &cobra.Command{
	Use:   "ripzip",
	Short: "Add files to ZIP archives, copy and wait on files, with cancellable chunked I/O",
	Long: `ripzip

Streams files into ZIP archives (store, deflate, zstd, xz), copies, moves and
hashes files in fixed-size chunks, and waits for files that another process
still holds locked. Every operation can be interrupted with Ctrl+C and leaves
no partial output behind.

Copyright (c) 2025 Luciano Hillcoat.
This program is open-source and warranty-free, read more at: https://github.com/lucrnz/ripzip/blob/main/LICENSE
`,
	Version:           version.Print(),
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/ripzip/config.toml or ./ripzip.toml)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Only print errors")

	rootCmd.AddCommand(addCmd, copyCmd, moveCmd, waitCmd, digestCmd, listCmd, extractCmd)

	// Silence usage output for runtime errors, but show it for flag errors
	// SilenceErrors is true so we can control error output format in main()
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	// Show usage only when there's a flag parsing error
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return err
	})
}

// ExecuteContext runs the root command. Partially written files are
// registered with t so the caller can remove them after an interrupt.
func ExecuteContext(ctx context.Context, t *cleanup.Tracker) error {
	tracker = t
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Show usage for argument errors (not caught by SetFlagErrorFunc)
		if strings.Contains(err.Error(), "arg(s)") || strings.Contains(err.Error(), "required flag") {
			_ = rootCmd.Usage()
		}
		return err
	}
	return nil
}

// setup loads the configuration and attaches the configured logger to the
// command context.
func setup(cmd *cobra.Command, _ []string) error {
	c, path, err := config.Load(config.LoadOptions{ConfigFilePath: configPath})
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if quiet {
		c.Log.Level = "error"
	}

	logger, err := logging.New(c.Log.Level, c.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	cleanup.SetLogger(logger)
	if path != "" {
		logger.Debug("config_loaded", "file", path)
	}

	cfg = c
	cmd.SetContext(logging.WithContext(cmd.Context(), logger))
	return nil
}

// bufferFromFlags allocates the copy buffer from --buffer-size when given,
// otherwise from the configured size.
func bufferFromFlags(flags *pflag.FlagSet, sizeFlag string) ([]byte, error) {
	size := cfg.BufferSize
	if flags.Changed("buffer-size") {
		n, err := util.ParseByteSize(sizeFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --buffer-size value: %w", err)
		}
		if n <= 0 || n > int64(util.GiB) {
			return nil, fmt.Errorf("--buffer-size must be between 1B and 1GiB, got %s", sizeFlag)
		}
		size = n
	}
	return make([]byte, size), nil
}

// status prints a human-readable line to stderr unless --quiet is set.
func status(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// output writes a result line to stdout. Results are printed even with
// --quiet so they can be piped.
func output(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
