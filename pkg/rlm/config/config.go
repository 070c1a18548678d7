// Package config handles the optional configuration file, defaults, and
// secret resolution for the RLM driver.
package config

import (
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

// Defaults for the driver limits.
const (
	DefaultMaxCalls    = 20
	DefaultMaxDepth    = 3
	DefaultTruncateLen = 5000
)

// Config holds every recognized option. Defaults come from DefaultConfig;
// zero means "unset" for model names and "unlimited" for token budgets.
type Config struct {
	// MaxCallsPerSubagent bounds the chat-completion calls per agent.
	MaxCallsPerSubagent int `yaml:"max_calls_per_subagent"`

	// MaxDepth bounds llm_query recursion. 0 is a valid value (no recursion).
	MaxDepth int `yaml:"max_depth"`

	// TruncateLen bounds the execution output fed back to the model.
	TruncateLen int `yaml:"truncate_len"`

	// PrimaryAgent is the requested model for the root agent.
	PrimaryAgent string `yaml:"primary_agent"`

	// SubAgent is the requested model for recursive agents.
	SubAgent string `yaml:"sub_agent"`

	// MaxPromptTokens is the global prompt-token cap (0 = unlimited).
	MaxPromptTokens int64 `yaml:"max_prompt_tokens"`

	// MaxCompletionTokens is the global completion-token cap (0 = unlimited).
	MaxCompletionTokens int64 `yaml:"max_completion_tokens"`

	// MaxMoneySpent is accepted but ignored. Cost budgeting was replaced by
	// token caps; loading a config that still sets it logs a deprecation
	// warning once.
	MaxMoneySpent any `yaml:"max_money_spent"`

	// LogDir is where run logs are written (default: current directory).
	LogDir string `yaml:"log_dir"`

	// LogPrefix is prepended to generated log file names.
	LogPrefix string `yaml:"log_prefix"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxCallsPerSubagent: DefaultMaxCalls,
		MaxDepth:            DefaultMaxDepth,
		TruncateLen:         DefaultTruncateLen,
	}
}

// Validate checks option ranges. MaxDepth and the token caps may be zero;
// MaxCallsPerSubagent and TruncateLen must stay positive.
func (c *Config) Validate() error {
	if c.MaxCallsPerSubagent <= 0 {
		return rlmerr.New(rlmerr.KindConfig, "max_calls_per_subagent must be > 0, got %d", c.MaxCallsPerSubagent)
	}
	if c.MaxDepth < 0 {
		return rlmerr.New(rlmerr.KindConfig, "max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.TruncateLen <= 0 {
		return rlmerr.New(rlmerr.KindConfig, "truncate_len must be > 0, got %d", c.TruncateLen)
	}
	if c.MaxPromptTokens < 0 {
		return rlmerr.New(rlmerr.KindConfig, "max_prompt_tokens must be >= 0 (0 = unlimited), got %d", c.MaxPromptTokens)
	}
	if c.MaxCompletionTokens < 0 {
		return rlmerr.New(rlmerr.KindConfig, "max_completion_tokens must be >= 0 (0 = unlimited), got %d", c.MaxCompletionTokens)
	}
	return nil
}
