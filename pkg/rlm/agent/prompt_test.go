package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateOutputEmpty(t *testing.T) {
	assert.Equal(t, "[EMPTY OUTPUT]", truncateOutput("", 5000))
}

func TestTruncateOutputExactLimitShownFull(t *testing.T) {
	text := strings.Repeat("a", 5000)
	out := truncateOutput(text, 5000)
	assert.Equal(t, "[FULL OUTPUT SHOWN]... "+text, out)
}

func TestTruncateOutputOneOverLimit(t *testing.T) {
	text := "x" + strings.Repeat("a", 5000)
	out := truncateOutput(text, 5000)

	prefix := fmt.Sprintf("[TRUNCATED: Last %d chars shown].. ", 5000)
	assert.True(t, strings.HasPrefix(out, prefix))
	payload := strings.TrimPrefix(out, prefix)
	assert.Len(t, payload, 5000)
	assert.Equal(t, strings.Repeat("a", 5000), payload)
}

func TestTailCharsIdempotent(t *testing.T) {
	text := strings.Repeat("ab", 4000)
	once := tailChars(text, 5000)
	twice := tailChars(once, 5000)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 5000)
}

func TestSeedMessageShape(t *testing.T) {
	msg := seedMessage(5000, "Context type: str\n")

	assert.True(t, strings.HasPrefix(msg, "Outputs will always be truncated to last 5000 characters."))
	assert.Contains(t, msg, "```repl\n"+seedProgram+"\n```")
	assert.Contains(t, msg, "Output: \nContext type: str\n")
}

func TestOutputMessage(t *testing.T) {
	assert.Equal(t, "Output: \n[EMPTY OUTPUT]", outputMessage("[EMPTY OUTPUT]"))
}
