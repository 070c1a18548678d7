package runlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/usage"
)

func TestSinkLazyOpen(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, "test", nil)

	// Nothing written yet: no file, no exposed path.
	assert.Empty(t, sink.GetLogFile())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	logger := NewLogger(sink, 0, 20, "", "hello")
	defer sink.Flush()

	path := sink.GetLogFile()
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.NotEmpty(t, logger.RunID())

	// Path stays stable across writes.
	logger.CodeGenerated("print(1)", "", usage.Usage{})
	assert.Equal(t, path, sink.GetLogFile())
}

func TestEventStreamOrdering(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, "", nil)

	root := NewLogger(sink, 0, 20, "", "root query")
	root.ExecutionResult("seed", "seed output", false, "", usage.Usage{})

	child := NewLogger(sink, 1, 20, root.RunID(), "child query")
	child.ExecutionResult("child code", "out", false, "", usage.Usage{PromptTokens: 5})
	child.FinalResult("child done")

	root.ExecutionResult("code", "output", true, "thinking", usage.Usage{PromptTokens: 10, CompletionTokens: 2})
	root.FinalResult("root done")
	sink.Flush()

	events, err := ReadFile(sink.GetLogFile())
	require.NoError(t, err)
	require.Len(t, events, 7)

	// run_start precedes all other events of each run.
	assert.Equal(t, EventRunStart, events[0].Type)
	assert.Equal(t, "root query", events[0].Query)
	assert.Equal(t, 20, events[0].MaxCalls)
	assert.Empty(t, events[0].ParentRunID)

	// Child events are linked to the parent and nested between parent steps.
	assert.Equal(t, EventRunStart, events[2].Type)
	assert.Equal(t, root.RunID(), events[2].ParentRunID)
	assert.Equal(t, 1, events[2].Depth)

	// Steps are monotonically non-decreasing per run.
	require.NotNil(t, events[1].Step)
	assert.Equal(t, 0, *events[1].Step)
	require.NotNil(t, events[5].Step)
	assert.Equal(t, 1, *events[5].Step)

	// final_result is last for each run.
	assert.Equal(t, EventFinalResult, events[4].Type)
	assert.Equal(t, "child done", events[4].Result)
	assert.Equal(t, EventFinalResult, events[6].Type)
}

func TestEventRoundTripPreservesFields(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir, "", nil)

	logger := NewLogger(sink, 2, 5, "parent-id", "q")
	u := usage.Usage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10, CachedTokens: 1, ReasoningTokens: 2, Cost: 0.5}
	logger.ExecutionResult("print('x')", "[FULL OUTPUT SHOWN]... x", true, "step reasoning", u)
	sink.Flush()

	events, err := ReadFile(sink.GetLogFile())
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[1]
	assert.Equal(t, EventExecutionResult, ev.Type)
	assert.Equal(t, "print('x')", ev.Code)
	assert.Equal(t, "[FULL OUTPUT SHOWN]... x", ev.Output)
	require.NotNil(t, ev.HasError)
	assert.True(t, *ev.HasError)
	assert.Equal(t, "step reasoning", ev.Reasoning)
	require.NotNil(t, ev.Usage)
	assert.Equal(t, u, *ev.Usage)
	assert.Equal(t, "parent-id", ev.ParentRunID)
	assert.Equal(t, 2, ev.Depth)
	assert.Greater(t, ev.Time, int64(0))
}

func TestErrorEvent(t *testing.T) {
	sink := NewSink(t.TempDir(), "", nil)
	logger := NewLogger(sink, 0, 20, "", "q")
	logger.Error("Prompt token budget exceeded: 120 used, limit is 100")
	sink.Flush()

	events, err := ReadFile(sink.GetLogFile())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventError, events[1].Type)
	assert.Contains(t, events[1].Message, "budget exceeded")
}

func TestFlushIdempotent(t *testing.T) {
	sink := NewSink(t.TempDir(), "", nil)
	NewLogger(sink, 0, 20, "", "q")
	sink.Flush()
	sink.Flush()
}

func TestBuildTree(t *testing.T) {
	sink := NewSink(t.TempDir(), "", nil)
	root := NewLogger(sink, 0, 20, "", "root")
	child := NewLogger(sink, 1, 20, root.RunID(), "child")
	grandchild := NewLogger(sink, 2, 20, child.RunID(), "grandchild")
	grandchild.FinalResult("g")
	child.FinalResult("c")
	root.FinalResult("r")
	sink.Flush()

	events, err := ReadFile(sink.GetLogFile())
	require.NoError(t, err)

	roots := BuildTree(events)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[0].Children[0].Children, 1)

	result, ok := roots[0].FinalResult()
	require.True(t, ok)
	assert.Equal(t, "r", result)
}
