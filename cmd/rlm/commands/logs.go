package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/runlog"
)

// newLogsCmd creates the `rlm logs` command: the offline viewer for a
// finished run log.
func newLogsCmd() *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "logs <file>",
		Short: "Render a run log",
		Long: `Render a run log written by a previous invocation.

Views:
  tree    run hierarchy with per-run steps (default)
  linear  every event in file order, one line each
  stats   per-run and total token usage`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			events, err := runlog.ReadFile(args[0])
			if err != nil {
				return rlmerr.Wrap(rlmerr.KindUsage, err)
			}

			width := runlog.TerminalWidth()
			switch view {
			case "tree":
				fmt.Print(runlog.RenderTree(events, width))
			case "linear":
				fmt.Print(runlog.RenderLinear(events, width))
			case "stats":
				fmt.Print(runlog.RenderStats(events))
			default:
				return rlmerr.New(rlmerr.KindUsage, "unknown view %q (want tree, linear, or stats)", view)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "tree", "view: tree, linear, or stats")
	return cmd
}
