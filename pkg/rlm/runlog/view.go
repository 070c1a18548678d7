// Package runlog – view.go renders a finished event stream for the
// `rlm logs` command: a run tree, a linear event listing, or usage stats.
package runlog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultWidth = 100

var (
	styleRunHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleEventType = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleFinal     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	styleStatsBox  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// TerminalWidth detects the stdout width, falling back to a sane default
// when stdout is not a terminal.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return defaultWidth
}

// RenderTree renders the run hierarchy: each run with its events, followed
// by its sub-runs indented one level, in the order the sub-runs first appear
// in the stream. Sub-runs are listed after all of the parent's events, not
// under the step that spawned them.
func RenderTree(events []Event, width int) string {
	var b strings.Builder
	for _, root := range BuildTree(events) {
		renderRun(&b, root, 0, width)
	}
	return b.String()
}

func renderRun(b *strings.Builder, run *Run, indent, width int) {
	pad := strings.Repeat("  ", indent)

	header := fmt.Sprintf("run %s (depth %d)", shortID(run.RunID), run.Depth)
	if run.ParentRunID != "" {
		header += styleDim.Render(fmt.Sprintf("  parent %s", shortID(run.ParentRunID)))
	}
	b.WriteString(pad + styleRunHeader.Render(header) + "\n")

	avail := width - len(pad) - 24
	if avail < 20 {
		avail = 20
	}

	for _, ev := range run.Events {
		switch ev.Type {
		case EventRunStart:
			b.WriteString(pad + "  " + styleDim.Render("query: "+preview(ev.Query, avail)) + "\n")
		case EventCodeGenerated, EventExecutionResult:
			step := ""
			if ev.Step != nil {
				step = fmt.Sprintf("[%d] ", *ev.Step)
			}
			line := pad + "  " + step + styleEventType.Render(string(ev.Type))
			if ev.Code != "" {
				line += " " + preview(firstLine(ev.Code), avail)
			}
			if ev.HasError != nil && *ev.HasError {
				line += " " + styleError.Render("(error)")
			}
			b.WriteString(line + "\n")
		case EventFinalResult:
			b.WriteString(pad + "  " + styleFinal.Render("final: "+preview(fmt.Sprintf("%v", ev.Result), avail)) + "\n")
		case EventError:
			b.WriteString(pad + "  " + styleError.Render("error: "+preview(ev.Message, avail)) + "\n")
		}
	}

	for _, child := range run.Children {
		renderRun(b, child, indent+1, width)
	}
}

// RenderLinear renders every event in file order, one line each.
func RenderLinear(events []Event, width int) string {
	var b strings.Builder
	for _, ev := range events {
		ts := time.UnixMilli(ev.Time).Format("15:04:05.000")
		step := "-"
		if ev.Step != nil {
			step = fmt.Sprintf("%d", *ev.Step)
		}
		detail := ""
		switch ev.Type {
		case EventRunStart:
			detail = preview(ev.Query, width-60)
		case EventCodeGenerated, EventExecutionResult:
			detail = preview(firstLine(ev.Code), width-60)
		case EventFinalResult:
			detail = preview(fmt.Sprintf("%v", ev.Result), width-60)
		case EventError:
			detail = styleError.Render(preview(ev.Message, width-60))
		}
		b.WriteString(fmt.Sprintf("%s  %s d%d %-4s %-18s %s\n",
			styleDim.Render(ts), shortID(ev.RunID), ev.Depth, step,
			styleEventType.Render(string(ev.Type)), detail))
	}
	return b.String()
}

// RenderStats renders per-run and total usage.
func RenderStats(events []Event) string {
	type runStats struct {
		runID   string
		depth   int
		steps   int
		prompt  int64
		compl   int64
		cost    float64
		hasEnd  bool
		started int64
		ended   int64
	}

	byID := make(map[string]*runStats)
	var order []*runStats
	for _, ev := range events {
		rs, ok := byID[ev.RunID]
		if !ok {
			rs = &runStats{runID: ev.RunID, depth: ev.Depth, started: ev.Time}
			byID[ev.RunID] = rs
			order = append(order, rs)
		}
		rs.ended = ev.Time
		switch ev.Type {
		case EventCodeGenerated, EventExecutionResult:
			rs.steps++
			if ev.Usage != nil {
				rs.prompt += ev.Usage.PromptTokens
				rs.compl += ev.Usage.CompletionTokens
				rs.cost += ev.Usage.Cost
			}
		case EventFinalResult:
			rs.hasEnd = true
		}
	}

	var b strings.Builder
	var totalPrompt, totalCompl int64
	var totalCost float64
	for _, rs := range order {
		totalPrompt += rs.prompt
		totalCompl += rs.compl
		totalCost += rs.cost
		status := "incomplete"
		if rs.hasEnd {
			status = "finished"
		}
		b.WriteString(fmt.Sprintf("%s  depth %d  steps %-3d  prompt %-8d completion %-8d %s\n",
			shortID(rs.runID), rs.depth, rs.steps, rs.prompt, rs.compl, status))
	}

	summary := fmt.Sprintf("runs: %d\nprompt tokens: %d\ncompletion tokens: %d\ncost: %.4f",
		len(order), totalPrompt, totalCompl, totalCost)
	if len(order) > 0 {
		first := order[0]
		elapsed := time.Duration(first.ended-first.started) * time.Millisecond
		summary += fmt.Sprintf("\nroot duration: %s", elapsed)
	}
	b.WriteString(styleStatsBox.Render(summary) + "\n")
	return b.String()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if n <= 3 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
