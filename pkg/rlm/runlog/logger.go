// Package runlog – logger.go implements the shared sink and the per-agent
// logger handles.
package runlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/usage"
)

// Sink owns the log file for one invocation tree. The file is created
// lazily on the first write; once created its path is stable for the whole
// invocation. Each record is serialized fully before a single Write call so
// a line is either fully present or absent.
type Sink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	opened bool
	logger *slog.Logger
}

// NewSink prepares a sink writing to dir with an optional file name prefix.
// The file name carries a timestamp; nothing touches the disk until the
// first event is written.
func NewSink(dir, prefix string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "rlm"
	}
	name := fmt.Sprintf("%s_%s.jsonl", prefix, time.Now().Format("20060102_150405"))
	return &Sink{
		path:   filepath.Join(dir, name),
		logger: logger.With("component", "runlog"),
	}
}

// GetLogFile returns the log file path, or empty string while no event has
// been written yet.
func (s *Sink) GetLogFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return ""
	}
	return s.path
}

// write appends one event as a single JSON line. Open-on-first-write.
func (s *Sink) write(ev *Event) {
	line, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to serialize log event", "error", err, "event_type", ev.Type)
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		if dir := filepath.Dir(s.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				s.logger.Error("failed to create log directory", "error", err, "dir", dir)
				return
			}
		}
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			s.logger.Error("failed to open log file", "error", err, "path", s.path)
			return
		}
		s.file = f
		s.opened = true
	}
	if s.file == nil {
		return
	}
	if _, err := s.file.Write(line); err != nil {
		s.logger.Error("failed to write log event", "error", err)
	}
}

// Flush closes the sink. Safe to call more than once; called in the
// top-level guaranteed-release path.
func (s *Sink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}

// Logger is a per-agent handle over the shared sink. Creating one assigns
// the agent's run id and writes its run_start record.
type Logger struct {
	sink        *Sink
	runID       string
	parentRunID string
	depth       int
	step        int
}

// NewLogger creates the handle for one agent and writes run_start.
func NewLogger(sink *Sink, depth, maxCalls int, parentRunID, query string) *Logger {
	l := &Logger{
		sink:        sink,
		runID:       uuid.NewString(),
		parentRunID: parentRunID,
		depth:       depth,
	}
	l.emit(&Event{
		Type:     EventRunStart,
		Query:    query,
		MaxCalls: maxCalls,
	})
	return l
}

// RunID returns the opaque id correlating this agent's events.
func (l *Logger) RunID() string {
	return l.runID
}

// CodeGenerated records a turn whose reply produced code (or none) but no
// execution output: extractor misses and final-result turns.
func (l *Logger) CodeGenerated(code, reasoning string, u usage.Usage) {
	l.emit(&Event{
		Type:      EventCodeGenerated,
		Step:      intPtr(l.step),
		Code:      code,
		HasError:  boolPtr(false),
		Reasoning: reasoning,
		Usage:     &u,
	})
	l.step++
}

// ExecutionResult records a turn with captured execution output. Also used
// for the seed step (step 0).
func (l *Logger) ExecutionResult(code, output string, hasError bool, reasoning string, u usage.Usage) {
	l.emit(&Event{
		Type:      EventExecutionResult,
		Step:      intPtr(l.step),
		Code:      code,
		Output:    output,
		HasError:  boolPtr(hasError),
		Reasoning: reasoning,
		Usage:     &u,
	})
	l.step++
}

// FinalResult records the value that terminated the agent. Always the
// agent's last record.
func (l *Logger) FinalResult(result any) {
	l.emit(&Event{
		Type:   EventFinalResult,
		Step:   intPtr(l.step),
		Result: result,
	})
}

// Error records a failure that ends the agent without a final result.
func (l *Logger) Error(msg string) {
	l.emit(&Event{
		Type:    EventError,
		Step:    intPtr(l.step),
		Message: msg,
	})
}

func (l *Logger) emit(ev *Event) {
	ev.Time = time.Now().UnixMilli()
	ev.RunID = l.runID
	ev.ParentRunID = l.parentRunID
	ev.Depth = l.depth
	l.sink.write(ev)
}
