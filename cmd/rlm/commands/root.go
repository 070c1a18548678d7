// Package commands implements the rlm CLI command tree.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

var verbose bool

// NewRootCmd creates the root `rlm` command.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rlm",
		Short: "Recursive language model driver",
		Long: `rlm runs a language model against a prompt too large for its context
by giving it a sandboxed Python REPL over the prompt. Inside the REPL the
model can inspect the prompt as a value and spawn sub-agents whose answers
come back as bindings instead of expanded text.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Best-effort .env load; a missing file is fine.
			_ = godotenv.Load()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newSmokeCmd(),
		newLogsCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// Execute runs the CLI and maps the resulting error to an exit code.
func Execute(version string) int {
	rootCmd := NewRootCmd(version)

	err := rootCmd.Execute()
	if err == nil {
		return rlmerr.ExitOK
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", redactedMessage(err))

	// Flag and argument parse failures are CLI misuse.
	if isCobraUsageError(err) {
		return rlmerr.ExitUsage
	}
	return rlmerr.KindOf(err).ExitCode()
}

// isCobraUsageError detects cobra's own parse failures, which arrive as
// plain errors rather than kinded ones.
func isCobraUsageError(err error) bool {
	var ke *rlmerr.Error
	if errors.As(err, &ke) {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"unknown flag", "unknown shorthand flag", "flag needs an argument", "unknown command", "invalid argument", "requires at least", "arg(s), received"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// redactedMessage strips the API key from an error message before it
// reaches stderr.
func redactedMessage(err error) string {
	return rlmerr.Redact(err.Error(), os.Getenv("RLM_MODEL_API_KEY"))
}

// newLogger builds the CLI's diagnostic logger on stderr. The run log is a
// separate artifact and not affected by verbosity.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
