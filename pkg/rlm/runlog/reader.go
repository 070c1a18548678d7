// Package runlog – reader.go loads a finished event stream for the viewer.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReadFile parses a JSONL event stream. Every line must be a complete JSON
// object; the writer guarantees no partial lines.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("parsing log line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	return events, nil
}

// Run groups the events of one run id, in file order.
type Run struct {
	RunID       string
	ParentRunID string
	Depth       int
	Events      []Event
	Children    []*Run
}

// BuildTree assembles runs into the parent/child hierarchy, preserving file
// order. Runs whose parent is absent from the stream become roots.
func BuildTree(events []Event) []*Run {
	byID := make(map[string]*Run)
	var order []*Run
	for i := range events {
		ev := events[i]
		run, ok := byID[ev.RunID]
		if !ok {
			run = &Run{RunID: ev.RunID, ParentRunID: ev.ParentRunID, Depth: ev.Depth}
			byID[ev.RunID] = run
			order = append(order, run)
		}
		run.Events = append(run.Events, ev)
	}

	var roots []*Run
	for _, run := range order {
		if run.ParentRunID != "" {
			if parent, ok := byID[run.ParentRunID]; ok {
				parent.Children = append(parent.Children, run)
				continue
			}
		}
		roots = append(roots, run)
	}
	return roots
}

// FinalResult returns the run's final_result value, if any.
func (r *Run) FinalResult() (any, bool) {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Type == EventFinalResult {
			return r.Events[i].Result, true
		}
	}
	return nil, false
}
