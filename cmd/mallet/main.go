package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris-regnier/mallet/internal/output"
)

var (
	// Version information injected by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagQuiet         bool
	flagVerbose       bool
	flagDebug         bool
	flagLogFormat     string
	flagProjectConfig string
	flagMachineConfig string
)

var rootCmd = &cobra.Command{
	Use:     "mallet",
	Short:   "Lint and correct source files with tree-sitter rules",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := output.SetupLogger(output.LogOptions{
			Quiet:   flagQuiet,
			Verbose: flagVerbose,
			Debug:   flagDebug,
			Format:  flagLogFormat,
		}, os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mallet %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built at: %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log progress")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log debugging detail")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log encoding: text or json")
	rootCmd.PersistentFlags().StringVar(&flagProjectConfig, "config", "", "Project config file (default: .mallet.yaml or .mallet.toml)")
	rootCmd.PersistentFlags().StringVar(&flagMachineConfig, "machine-config", "", "Machine config file (default: $HOME/.config/mallet/mallet.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// exitError carries a process exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of f, or 0 when it is not a terminal.
func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "mallet:", err)
		os.Exit(1)
	}
}
