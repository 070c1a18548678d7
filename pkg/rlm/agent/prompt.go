// Package agent – prompt.go holds the fixed system prompt, the seed program
// run before the first model turn, and the synthetic message templates.
package agent

import "fmt"

// SystemPrompt is sent as the system message on every chat completion. It is
// never stored in the conversation history.
const SystemPrompt = `You are solving a task against a prompt that is too large to read directly. You interact with it through a Python REPL instead.

Rules:
- The full prompt is available in the REPL as the string variable ` + "`context`" + `.
- To run code, reply with a fenced block tagged repl:
  ` + "```repl" + `
  print(context[:200])
  ` + "```" + `
  Only repl blocks are executed. Anything else is treated as commentary.
- Variables persist between turns. Print what you need to see; output is fed back to you (truncated to the most recent characters).
- For a focused subtask over a piece of the prompt, call llm_query(subprompt). It runs a fresh agent on that subprompt and returns its answer as a value. Prefer llm_query over reading large slices yourself.
- When you know the final answer, call FINAL(answer) (or FINAL_VAR(variable)) inside a repl block. That ends the task.

Work in small steps: inspect, narrow down, delegate, then finish with FINAL.`

// seedProgram is executed before the first model turn so the conversation
// opens with the context's shape instead of its full text.
const seedProgram = `print(f"Context type: {type(context).__name__}")
print(f"Context length: {len(context)}")
if len(context) <= 500:
    print(context)
else:
    print(context[:500])
    print("...")
    print(context[-500:])`

// finalHelpers installs the termination globals. Both helpers assign their
// argument to __final_result__; the driver reads it after every execution.
const finalHelpers = `__final_result__ = None

def FINAL(value):
    global __final_result__
    __final_result__ = value
    return value

def FINAL_VAR(value):
    global __final_result__
    __final_result__ = value
    return value`

// noCodeMessage is appended when a reply contained no repl block.
const noCodeMessage = "Error: We could not extract code because you may not have used repl block!"

// seedMessage builds the first user message: the truncation notice, the seed
// code, and its captured output.
func seedMessage(truncateLen int, output string) string {
	return fmt.Sprintf(
		"Outputs will always be truncated to last %d characters.\n```repl\n%s\n```\nOutput: \n%s",
		truncateLen, seedProgram, output)
}

// outputMessage wraps an execution observation for the next turn.
func outputMessage(truncated string) string {
	return "Output: \n" + truncated
}

// truncateOutput folds captured stdout into the bounded observation fed back
// to the model: empty output and oversized output get explicit markers.
func truncateOutput(text string, limit int) string {
	if len(text) == 0 {
		return "[EMPTY OUTPUT]"
	}
	if len(text) > limit {
		return fmt.Sprintf("[TRUNCATED: Last %d chars shown].. %s", limit, tailChars(text, limit))
	}
	return "[FULL OUTPUT SHOWN]... " + text
}

// tailChars returns the last n characters of text. Idempotent: taking the
// tail of a tail yields the same string.
func tailChars(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[len(text)-n:]
}
