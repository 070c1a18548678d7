// Package agent – client.go implements the chat client for code generation.
// Uses the OpenAI-compatible API format, which works with any proxy exposing
// /chat/completions.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/provider"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/usage"
)

// Message is one conversation entry. Reasoning is carried for logging only
// and is never re-sent to the provider.
type Message struct {
	Role      string
	Content   string
	Reasoning string
}

// GenerateResult is one chat completion folded through the code extractor
// and the usage normalizer.
type GenerateResult struct {
	Code    string
	Success bool
	Message Message
	Usage   usage.Usage
}

// ChatClient generates code from a conversation. Satisfied by the HTTP
// client below and by test fakes.
type ChatClient interface {
	GenerateCode(ctx context.Context, messages []Message, model string) (*GenerateResult, error)
}

// Client is the HTTP chat client against the OpenAI-compatible proxy.
type Client struct {
	cfg        provider.ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a chat client from a validated proxy config.
func NewClient(cfg provider.ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
		logger: logger.With("component", "chat"),
	}
}

// wireMessage is the on-the-wire message shape. Assistant reasoning is
// deliberately absent.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-compatible chat completions request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatResponse is the OpenAI-compatible chat completions response. Usage is
// kept raw and handed to the normalizer.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateCode sends the fixed system prompt plus the conversation and folds
// the reply through the code extractor and the usage normalizer.
func (c *Client) GenerateCode(ctx context.Context, messages []Message, model string) (*GenerateResult, error) {
	wire := make([]wireMessage, 0, len(messages)+1)
	wire = append(wire, wireMessage{Role: "system", Content: SystemPrompt})
	for _, m := range messages {
		wire = append(wire, wireMessage{Role: m.Role, Content: m.Content})
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    wire,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "marshaling chat request: %v", err)
	}

	endpoint := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "creating chat request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("sending chat completion",
		"model", model,
		"messages", len(wire),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindProxy, fmt.Errorf("chat request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "reading chat response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, rlmerr.New(rlmerr.KindProxy,
			"chat endpoint returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "parsing chat response: %v", err)
	}
	if parsed.Error != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "chat API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, rlmerr.New(rlmerr.KindProxy, "chat response has no choices")
	}

	content := parsed.Choices[0].Message.Content
	code, success := ExtractCode(content)

	var u usage.Usage
	if len(parsed.Usage) > 0 {
		if u, err = usage.Normalize(parsed.Usage); err != nil {
			return nil, rlmerr.New(rlmerr.KindProxy, "normalizing usage: %v", err)
		}
	}

	c.logger.Debug("chat completion done",
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", u.PromptTokens,
		"completion_tokens", u.CompletionTokens,
		"has_code", success,
	)

	return &GenerateResult{
		Code:    code,
		Success: success,
		Message: Message{
			Role:      "assistant",
			Content:   content,
			Reasoning: parsed.Choices[0].Message.Reasoning,
		},
		Usage: u,
	}, nil
}

// truncate returns the first n characters of s, adding "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
