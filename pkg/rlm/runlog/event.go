// Package runlog implements the append-only structured event stream written
// during a run, and the offline viewer that renders a finished stream.
//
// One invocation tree shares a single sink; every agent in the tree gets its
// own logger handle carrying a fresh run id and, below the root, the parent
// run id that links sub-agents to their caller.
package runlog

import (
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/usage"
)

// EventType enumerates the record kinds in the stream.
type EventType string

const (
	EventRunStart        EventType = "run_start"
	EventCodeGenerated   EventType = "code_generated"
	EventExecutionResult EventType = "execution_result"
	EventFinalResult     EventType = "final_result"
	EventError           EventType = "error"
)

// Event is one record of the stream. Serialized as a single JSON line.
// For any run id, events appear in non-decreasing step order; run_start is
// first and final_result, when present, is last.
type Event struct {
	Time        int64     `json:"time"` // ms since epoch
	RunID       string    `json:"run_id"`
	ParentRunID string    `json:"parent_run_id,omitempty"`
	Depth       int       `json:"depth"`
	Type        EventType `json:"event_type"`

	Step      *int         `json:"step,omitempty"`
	Code      string       `json:"code,omitempty"`
	Output    string       `json:"output,omitempty"`
	HasError  *bool        `json:"hasError,omitempty"`
	Reasoning string       `json:"reasoning,omitempty"`
	Usage     *usage.Usage `json:"usage,omitempty"`

	// Query is set on run_start; MaxCalls records the per-agent call limit.
	Query    string `json:"query,omitempty"`
	MaxCalls int    `json:"max_calls,omitempty"`

	// Result is set on final_result.
	Result any `json:"result,omitempty"`

	// Message is set on error events.
	Message string `json:"message,omitempty"`
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
