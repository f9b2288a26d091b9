package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/echoprint/go/cmd/echoprint/internal/config"
	"github.com/haivivi/echoprint/go/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	formatOutput string
	outputFile   string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "echoprint",
	Short: "Record from the microphone and fingerprint it",
	Long: `echoprint - capture a short microphone recording and turn it into an
echoprint fingerprint code with an external code generator.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/echoprint/
  Linux:   ~/.config/echoprint/
  Windows: %AppData%/echoprint/
Set ECHOPRINT_CONFIG_DIR to use another directory.

Examples:
  # Record 20 seconds and fingerprint with echoprint-codegen
  echoprint listen --codegen echoprint-codegen

  # Record 12 seconds, print JSON, skip the journal
  echoprint listen -s 12 --format json --no-history

  # Show the last five passes
  echoprint history --limit 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "yaml", "output format (yaml, json, raw)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

// logOut is the current log destination, closed when replaced.
var logOut io.WriteCloser

func initConfig() {
	globalConfig, configLoadErr = config.Load()

	level := slog.LevelInfo
	var w io.WriteCloser = os.Stderr
	if globalConfig != nil {
		if l, err := globalConfig.LogLevel(); err == nil {
			level = l
		}
		w = globalConfig.LogWriter(os.Stderr)
	}
	if verbose {
		level = slog.LevelDebug
	}
	if logOut != nil && logOut != os.Stderr {
		logOut.Close()
	}
	logOut = w
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// printResult writes v in the --format to stdout or --output.
func printResult(cmd *cobra.Command, v any) error {
	format, err := cli.ParseOutputFormat(formatOutput)
	if err != nil {
		return err
	}
	opts := cli.OutputOptions{Format: format, File: outputFile}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(v, opts)
}

// status returns a Printer for progress messages. They go to stderr so
// stdout carries only the result.
func status(cmd *cobra.Command) *cli.Printer {
	return cli.NewPrinter(cmd.ErrOrStderr(), cmd.ErrOrStderr())
}
