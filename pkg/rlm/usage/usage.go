// Package usage collapses the heterogeneous per-call token accounting shapes
// reported by OpenAI-compatible providers into one canonical record, and
// keeps the process-wide running total that the budget checks read.
package usage

import (
	"encoding/json"
	"errors"
	"math"
)

// ErrInvalidUsage is returned when a provider usage payload is not an object.
var ErrInvalidUsage = errors.New("invalid usage payload: not an object")

// Usage is the canonical per-call accounting record. All fields are
// non-negative after normalization.
type Usage struct {
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	CachedTokens     int64   `json:"cached_tokens"`
	ReasoningTokens  int64   `json:"reasoning_tokens"`
	Cost             float64 `json:"cost"`
}

// Add accumulates other into u field-wise.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.CachedTokens += other.CachedTokens
	u.ReasoningTokens += other.ReasoningTokens
	u.Cost += other.Cost
}

// Normalize converts an opaque provider usage object into the canonical
// shape. Accepted inputs: a decoded JSON object (map[string]any), a raw JSON
// message, or an already-normalized Usage (returned unchanged, which makes
// Normalize idempotent). Flat OpenAI fields and the nested usageMetadata
// shape are both recognized. Values that are not finite positive numbers are
// coerced to 0; a missing or invalid total falls back to prompt+completion.
func Normalize(raw any) (Usage, error) {
	switch v := raw.(type) {
	case Usage:
		return v, nil
	case *Usage:
		if v == nil {
			return Usage{}, ErrInvalidUsage
		}
		return *v, nil
	case json.RawMessage:
		var m map[string]any
		if err := json.Unmarshal(v, &m); err != nil {
			return Usage{}, ErrInvalidUsage
		}
		return fromMap(m), nil
	case map[string]any:
		return fromMap(v), nil
	default:
		return Usage{}, ErrInvalidUsage
	}
}

func fromMap(m map[string]any) Usage {
	u := Usage{
		PromptTokens:     tokens(m["prompt_tokens"]),
		CompletionTokens: tokens(m["completion_tokens"]),
		CachedTokens:     tokens(nested(m, "prompt_tokens_details", "cached_tokens")),
		ReasoningTokens:  tokens(nested(m, "completion_tokens_details", "reasoning_tokens")),
		Cost:             number(m["cost"]),
	}

	// Gemini-style nested shape.
	if meta, ok := m["usageMetadata"].(map[string]any); ok {
		u.PromptTokens = tokens(meta["promptTokenCount"])
		u.CompletionTokens = tokens(meta["candidatesTokenCount"])
		u.TotalTokens = tokens(meta["totalTokenCount"])
	} else {
		u.TotalTokens = tokens(m["total_tokens"])
	}

	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func nested(m map[string]any, outer, inner string) any {
	sub, ok := m[outer].(map[string]any)
	if !ok {
		return nil
	}
	return sub[inner]
}

func tokens(v any) int64 {
	return int64(number(v))
}

// number coerces a JSON value to a finite positive float64, else 0.
func number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
