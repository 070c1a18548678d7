// Package provider – catalog.go queries the proxy's model catalog and backs
// the preflight and smoke checks.
package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/config"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

// Client is a thin HTTP client for the catalog side of the proxy.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a catalog client from a validated config.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "provider"),
	}
}

// Config returns the client's endpoint configuration.
func (c *Client) Config() ClientConfig {
	return c.cfg
}

// modelsResponse is the OpenAI-compatible GET /models shape.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// FetchAvailableModels lists the model ids the proxy serves. Non-2xx and
// non-JSON responses are proxy failures; an empty list is a model failure.
func (c *Client) FetchAvailableModels(ctx context.Context) ([]string, error) {
	endpoint := c.cfg.BaseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "creating models request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "fetching model catalog: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "reading models response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rlmerr.New(rlmerr.KindProxy,
			"models endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, rlmerr.New(rlmerr.KindProxy, "parsing models response: %v", err)
	}

	var ids []string
	for _, m := range parsed.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return nil, rlmerr.New(rlmerr.KindModel, "model catalog is empty")
	}

	c.logger.Debug("model catalog fetched",
		"models", len(ids),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ids, nil
}

// Preflight fetches the catalog and resolves the requested model pair in one
// step. Run once per top-level invocation; descendants reuse the result.
func (c *Client) Preflight(ctx context.Context, requested ModelNames, getenv func(string) string) (*RuntimeModels, error) {
	available, err := c.FetchAvailableModels(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveRuntimeModels(requested, available, getenv)
}

// SmokeResult summarizes a proxy smoke check.
type SmokeResult struct {
	BaseURL      string
	CatalogSize  int
	PrimaryAgent string
	SubAgent     string
	Warnings     []string
	Elapsed      time.Duration
}

// Smoke performs the health check used by `rlm smoke`: it validates
// the endpoint config, fetches the catalog, and resolves the model pair
// without issuing any chat completion.
func Smoke(ctx context.Context, cfg *config.Config, getenv func(string) string, logger *slog.Logger) (*SmokeResult, error) {
	clientCfg, err := ResolveClientConfig(getenv)
	if err != nil {
		return nil, err
	}

	client := NewClient(clientCfg, logger)
	start := time.Now()
	available, err := client.FetchAvailableModels(ctx)
	if err != nil {
		return nil, err
	}

	models, err := ResolveRuntimeModels(ResolveModelNames(cfg, getenv), available, getenv)
	if err != nil {
		return nil, err
	}

	return &SmokeResult{
		BaseURL:      clientCfg.BaseURL,
		CatalogSize:  len(available),
		PrimaryAgent: models.PrimaryAgent,
		SubAgent:     models.SubAgent,
		Warnings:     models.Warnings,
		Elapsed:      time.Since(start),
	}, nil
}

// truncate returns the first n characters of s, adding "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
