// Package agent implements the recursive driver: the per-agent turn loop
// that generates code with a chat completion, executes it in a sandbox, and
// feeds the observation back, plus the llm_query bridge that spawns
// sub-agents one level deeper.
package agent

import (
	"regexp"
	"strings"
)

// replFence matches one fenced repl code block. Only the repl language tag
// is recognized; other fences are prose as far as the driver is concerned.
var replFence = regexp.MustCompile("(?s)```repl\\s*\n(.*?)```")

// ExtractCode pulls every non-overlapping repl block out of a model reply,
// trims each, and joins them with newlines. The second return reports
// whether any code was found.
func ExtractCode(reply string) (string, bool) {
	matches := replFence.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return "", false
	}

	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		if block := strings.TrimSpace(m[1]); block != "" {
			blocks = append(blocks, block)
		}
	}
	code := strings.Join(blocks, "\n")
	return code, len(code) > 0
}
