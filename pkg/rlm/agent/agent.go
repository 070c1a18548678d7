// Package agent – agent.go implements the recursive turn loop. Each agent
// owns a fresh sandbox and a bounded loop of generate → extract → execute →
// observe turns; sub-agents created through llm_query run to completion
// while their parent is suspended inside the sandbox call, so the whole
// invocation tree is a depth-first traversal sharing one budget tracker and
// one event sink.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/provider"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/runlog"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/sandbox"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/usage"
)

// maxDepthMessage is the terminating error surfaced to an agent whose code
// tries to recurse past the depth cap.
const maxDepthMessage = "MAXIMUM DEPTH REACHED: answer directly without calling llm_query again"

// Evaluator is the sandbox contract the turn loop drives. Satisfied by
// *sandbox.Sandbox and by test fakes.
type Evaluator interface {
	Bind(name string, value any) error
	BindCall(name string, fn sandbox.HostFunc) error
	Run(ctx context.Context, code string) error
	TakeStdout() string
	AppendStdout(text string)
	ReadFinal(name string) (any, bool, error)
	Close()
}

// Options bounds one driver instance. MaxCalls and TruncateLen must be
// positive; MaxDepth 0 disables recursion. Callers go through config
// defaults.
type Options struct {
	MaxCalls    int
	MaxDepth    int
	TruncateLen int
}

// Driver runs one invocation tree. The chat client, budget tracker, event
// sink, and resolved model pair are shared by every agent in the tree.
type Driver struct {
	chat    ChatClient
	tracker *usage.Tracker
	sink    *runlog.Sink
	models  *provider.RuntimeModels
	opts    Options
	logger  *slog.Logger

	// newSandbox is the evaluator factory, overridable in tests.
	newSandbox func(ctx context.Context) (Evaluator, error)
}

// NewDriver assembles a driver. models is the pair resolved by preflight;
// it is reused verbatim by every descendant agent.
func NewDriver(chat ChatClient, tracker *usage.Tracker, sink *runlog.Sink, models *provider.RuntimeModels, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		chat:    chat,
		tracker: tracker,
		sink:    sink,
		models:  models,
		opts:    opts,
		logger:  logger.With("component", "agent"),
	}
	d.newSandbox = func(ctx context.Context) (Evaluator, error) {
		return sandbox.Start(ctx, logger)
	}
	return d
}

// SetSandboxFactory replaces the evaluator factory. Test seam.
func (d *Driver) SetSandboxFactory(fn func(ctx context.Context) (Evaluator, error)) {
	d.newSandbox = fn
}

// Run executes the root agent to completion. The budget tracker is reset so
// each top-level invocation starts from zero.
func (d *Driver) Run(ctx context.Context, contextStr string) (any, error) {
	d.tracker.Reset()
	result, err := d.subagent(ctx, contextStr, 0, "")
	if err != nil && ctx.Err() != nil {
		// Cancellation wins over whatever failure it provoked downstream.
		return result, &rlmerr.Error{Kind: rlmerr.KindInterrupted, Err: fmt.Errorf("run interrupted: %w", err)}
	}
	return result, err
}

// subagent drives one agent at the given depth. The sandbox is released on
// every exit path.
func (d *Driver) subagent(ctx context.Context, contextStr string, depth int, parentRunID string) (result any, err error) {
	rl := runlog.NewLogger(d.sink, depth, d.opts.MaxCalls, parentRunID, contextStr)
	logger := d.logger.With("run_id", rl.RunID(), "depth", depth)

	sb, err := d.newSandbox(ctx)
	if err != nil {
		err = rlmerr.Wrap(rlmerr.KindRuntime, fmt.Errorf("opening sandbox: %w", err))
		rl.Error(err.Error())
		return nil, err
	}
	defer sb.Close()

	// Any failure past this point ends the agent's stream with an error
	// record so the log is self-describing.
	defer func() {
		if err != nil {
			rl.Error(err.Error())
		}
	}()

	if err = d.seedSandbox(ctx, sb, contextStr, depth, rl); err != nil {
		return nil, err
	}
	seedOut := sb.TakeStdout()
	rl.ExecutionResult(seedProgram, seedOut, false, "", usage.Usage{})

	messages := []Message{{Role: "user", Content: seedMessage(d.opts.TruncateLen, seedOut)}}
	model := d.models.ModelFor(depth)

	logger.Info("agent started",
		"model", model,
		"context_len", len(contextStr),
		"max_calls", d.opts.MaxCalls,
	)

	for i := 0; i < d.opts.MaxCalls; i++ {
		if ctx.Err() != nil {
			return nil, rlmerr.Wrap(rlmerr.KindInterrupted, ctx.Err())
		}

		res, genErr := d.chat.GenerateCode(ctx, messages, model)
		if genErr != nil {
			return nil, genErr
		}
		messages = append(messages, res.Message)

		if err = d.tracker.Track(res.Usage); err != nil {
			logger.Warn("budget exceeded", "turn", i, "error", err)
			return nil, err
		}

		if !res.Success {
			logger.Debug("no repl block in reply", "turn", i)
			rl.CodeGenerated("", res.Message.Reasoning, res.Usage)
			messages = append(messages, Message{Role: "user", Content: noCodeMessage})
			continue
		}

		sb.TakeStdout()
		if err = sb.Run(ctx, res.Code); err != nil {
			return nil, rlmerr.Wrap(rlmerr.KindRuntime, fmt.Errorf("sandbox execution: %w", err))
		}
		captured := sb.TakeStdout()

		value, set, readErr := sb.ReadFinal("__final_result__")
		if readErr != nil {
			return nil, rlmerr.Wrap(rlmerr.KindRuntime, fmt.Errorf("reading final result: %w", readErr))
		}
		if set {
			rl.CodeGenerated(res.Code, res.Message.Reasoning, res.Usage)
			rl.FinalResult(value)
			logger.Info("agent finished", "turns", i+1)
			return value, nil
		}

		truncated := truncateOutput(captured, d.opts.TruncateLen)
		hasError := strings.Contains(captured, "Error")
		rl.ExecutionResult(res.Code, truncated, hasError, res.Message.Reasoning, res.Usage)
		messages = append(messages, Message{Role: "user", Content: outputMessage(truncated)})
	}

	err = rlmerr.New(rlmerr.KindRuntime, "Did not finish the function stack before subagent died")
	logger.Warn("agent exhausted call budget", "max_calls", d.opts.MaxCalls)
	return nil, err
}

// seedSandbox installs the agent's globals — context, the termination
// helpers, and the llm_query bridge — then runs the seed program.
func (d *Driver) seedSandbox(ctx context.Context, sb Evaluator, contextStr string, depth int, rl *runlog.Logger) error {
	if err := sb.Bind("context", contextStr); err != nil {
		return rlmerr.Wrap(rlmerr.KindRuntime, fmt.Errorf("binding context: %w", err))
	}
	if err := sb.Run(ctx, finalHelpers); err != nil {
		return rlmerr.Wrap(rlmerr.KindRuntime, fmt.Errorf("installing final helpers: %w", err))
	}
	if err := sb.BindCall("llm_query", d.bridge(sb, depth, rl.RunID())); err != nil {
		return rlmerr.Wrap(rlmerr.KindRuntime, fmt.Errorf("binding llm_query: %w", err))
	}
	if err := sb.Run(ctx, seedProgram); err != nil {
		return rlmerr.Wrap(rlmerr.KindRuntime, fmt.Errorf("running seed program: %w", err))
	}
	return nil
}

// bridge builds the llm_query host callable for an agent: it spawns a child
// agent one level deeper, tagged with this agent's run id and reusing the
// tree's resolved model pair. At the depth cap no child is created — the
// error lands in the calling agent's captured output instead, where the
// model is expected to see it and adapt.
func (d *Driver) bridge(sb Evaluator, depth int, runID string) sandbox.HostFunc {
	return func(ctx context.Context, arg any) (any, error) {
		if depth >= d.opts.MaxDepth {
			sb.AppendStdout("\nError: " + maxDepthMessage)
			return nil, errors.New(maxDepthMessage)
		}

		query, ok := arg.(string)
		if !ok {
			query = fmt.Sprintf("%v", arg)
		}
		return d.subagent(ctx, query, depth+1, runID)
	}
}
