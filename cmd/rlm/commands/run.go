package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/agent"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/config"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/provider"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/runlog"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/usage"
)

// newRunCmd creates the `rlm run` command: one full invocation tree against
// a context string.
func newRunCmd() *cobra.Command {
	var (
		contextFile string
		configPath  string
		logDir      string
		logPrefix   string
		outputPath  string
		maxCalls    int
		maxDepth    int
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "run [query]",
		Short: "Run the recursive driver against a context",
		Long: `Run the recursive driver. The context is read from --file (use "-" for
stdin) and the optional positional query is prepended as the task.

Examples:
  rlm run -f big_document.txt "What changed between the two drafts?"
  cat corpus.txt | rlm run -f - "List every person mentioned"
  rlm run "say hi"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			// SIGINT/SIGTERM cancel the run; cleanup still runs and the
			// exit code reports the interruption.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// ── Configuration ──
			if configPath == "" {
				configPath = config.FindConfigFile()
			}
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath, logger)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if maxCalls > 0 {
				cfg.MaxCallsPerSubagent = maxCalls
			}
			if cmd.Flags().Changed("max-depth") {
				cfg.MaxDepth = maxDepth
			}
			if logDir == "" {
				logDir = cfg.LogDir
			}
			if logDir == "" {
				logDir = "."
			}
			if logPrefix == "" {
				logPrefix = cfg.LogPrefix
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// ── Context input ──
			contextStr, err := readContext(contextFile, args)
			if err != nil {
				return err
			}

			// ── Preflight ──
			getenv := config.EnvWithKeyring(os.Getenv)
			clientCfg, err := provider.ResolveClientConfig(getenv)
			if err != nil {
				return err
			}
			catalog := provider.NewClient(clientCfg, logger)
			models, err := catalog.Preflight(ctx, provider.ResolveModelNames(cfg, getenv), getenv)
			if err != nil {
				return redactErr(err, clientCfg.APIKey)
			}
			for _, warning := range models.Warnings {
				fmt.Fprintln(os.Stderr, "Warning: "+warning)
			}

			// ── Assemble the tree's shared state ──
			tracker := usage.NewTracker(cfg.MaxPromptTokens, cfg.MaxCompletionTokens)
			sink := runlog.NewSink(logDir, logPrefix, logger)
			defer sink.Flush()

			chat := agent.NewClient(clientCfg, logger)
			driver := agent.NewDriver(chat, tracker, sink, models, agent.Options{
				MaxCalls:    cfg.MaxCallsPerSubagent,
				MaxDepth:    cfg.MaxDepth,
				TruncateLen: cfg.TruncateLen,
			}, logger)

			// ── Run ──
			result, runErr := driver.Run(ctx, contextStr)

			if path := sink.GetLogFile(); path != "" && !quiet {
				fmt.Fprintln(os.Stderr, "log: "+path)
			}
			if runErr != nil {
				return redactErr(runErr, clientCfg.APIKey)
			}

			// ── Output ──
			rendered := renderResult(result)
			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(rendered+"\n"), 0o644); err != nil {
					return rlmerr.Wrap(rlmerr.KindOutput, fmt.Errorf("writing result: %w", err))
				}
			}
			fmt.Println(rendered)

			if !quiet {
				total := tracker.Get()
				fmt.Fprintf(os.Stderr, "tokens: %d prompt, %d completion\n",
					total.PromptTokens, total.CompletionTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextFile, "file", "f", "", `context file ("-" reads stdin)`)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "directory for the run log")
	cmd.Flags().StringVar(&logPrefix, "log-prefix", "", "prefix for the run log file name")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the final result to a file")
	cmd.Flags().IntVar(&maxCalls, "max-calls", 0, "override max chat calls per agent")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "override max recursion depth")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress log path and token summary")

	return cmd
}

// readContext assembles the context string from the file flag and the
// positional query. With both, the query becomes the leading task line.
func readContext(contextFile string, args []string) (string, error) {
	var query string
	if len(args) == 1 {
		query = args[0]
	}

	if contextFile == "" {
		if query == "" {
			return "", rlmerr.New(rlmerr.KindUsage, "nothing to do: pass a query, --file, or both")
		}
		return query, nil
	}

	var data []byte
	var err error
	if contextFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(contextFile)
	}
	if err != nil {
		return "", rlmerr.Wrap(rlmerr.KindUsage, fmt.Errorf("reading context: %w", err))
	}

	if query == "" {
		return string(data), nil
	}
	return "Task: " + query + "\n\n" + string(data), nil
}

// renderResult formats the final value for stdout: strings verbatim,
// everything else as JSON.
func renderResult(result any) string {
	if result == nil {
		return "null"
	}
	if s, ok := result.(string); ok {
		return s
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(encoded)
}

// redactErr rebuilds err with the API key stripped from its message while
// keeping its kind.
func redactErr(err error, apiKey string) error {
	if err == nil {
		return nil
	}
	redacted := rlmerr.Redact(err.Error(), apiKey)
	if redacted == err.Error() {
		return err
	}
	return &rlmerr.Error{Kind: rlmerr.KindOf(err), Err: errors.New(redacted)}
}
