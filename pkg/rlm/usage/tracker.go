package usage

import (
	"sync"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

// Tracker is the process-wide budget accumulator shared by every agent in
// one invocation tree. Increments and budget checks happen under one lock so
// the check is atomic with the increment even if agents ever run in
// parallel. Totals are monotonically non-decreasing between resets.
type Tracker struct {
	mu    sync.Mutex
	total Usage

	// MaxPromptTokens and MaxCompletionTokens are the global caps.
	// 0 means unlimited.
	MaxPromptTokens     int64
	MaxCompletionTokens int64
}

// NewTracker creates a tracker with the given caps (0 = unlimited).
func NewTracker(maxPrompt, maxCompletion int64) *Tracker {
	return &Tracker{
		MaxPromptTokens:     maxPrompt,
		MaxCompletionTokens: maxCompletion,
	}
}

// Reset zeroes the running totals. Called at the start of each top-level
// invocation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = Usage{}
}

// Track adds u to the running totals, then checks the caps. The check is
// post-increment: the overflowing call is counted before being rejected.
func (t *Tracker) Track(u Usage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.Add(u)

	if t.MaxPromptTokens > 0 && t.total.PromptTokens > t.MaxPromptTokens {
		return rlmerr.New(rlmerr.KindRuntime,
			"Prompt token budget exceeded: %d used, limit is %d",
			t.total.PromptTokens, t.MaxPromptTokens)
	}
	if t.MaxCompletionTokens > 0 && t.total.CompletionTokens > t.MaxCompletionTokens {
		return rlmerr.New(rlmerr.KindRuntime,
			"Completion token budget exceeded: %d used, limit is %d",
			t.total.CompletionTokens, t.MaxCompletionTokens)
	}
	return nil
}

// Get returns a snapshot of the running totals.
func (t *Tracker) Get() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
