// Package provider validates the proxy endpoint configuration, queries the
// provider's model catalog, and resolves the requested model names to
// concrete runtime model IDs for the primary and sub agent roles.
package provider

import (
	"fmt"
	"strings"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/config"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

// Built-in defaults and ordered fallback chains per role.
const (
	DefaultPrimaryModel = "gpt-5"
	DefaultSubModel     = "gpt-5-codex-mini"
)

var (
	primaryFallbacks = []string{"gpt-5", "gpt-5.1", "gpt-5.2", "gpt-5-codex"}
	subFallbacks     = []string{"gpt-5-codex-mini", "gpt-5.1-codex-mini", "gemini-2.5-flash"}
)

// ClientConfig is the validated proxy endpoint configuration.
type ClientConfig struct {
	BaseURL string
	APIKey  string
}

// ResolveClientConfig reads the two required environment variables through
// getenv and validates them. The base URL is normalized (trailing slash
// trimmed) and must point at an OpenAI-compatible /v1 root.
func ResolveClientConfig(getenv func(string) string) (ClientConfig, error) {
	baseURL := strings.TrimRight(getenv("RLM_MODEL_BASE_URL"), "/")
	if baseURL == "" {
		return ClientConfig{}, rlmerr.New(rlmerr.KindConfig, "RLM_MODEL_BASE_URL is not set")
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		return ClientConfig{}, rlmerr.New(rlmerr.KindConfig,
			"RLM_MODEL_BASE_URL must end in /v1, got %q", baseURL)
	}

	apiKey := getenv("RLM_MODEL_API_KEY")
	if apiKey == "" {
		return ClientConfig{}, rlmerr.New(rlmerr.KindConfig, "RLM_MODEL_API_KEY is not set")
	}

	return ClientConfig{BaseURL: baseURL, APIKey: apiKey}, nil
}

// ModelNames is the requested (pre-preflight) model pair.
type ModelNames struct {
	Primary string
	Sub     string
}

// ResolveModelNames picks the requested models from, in order: environment
// variables, config file keys, built-in defaults.
func ResolveModelNames(cfg *config.Config, getenv func(string) string) ModelNames {
	names := ModelNames{
		Primary: getenv("RLM_PRIMARY_AGENT"),
		Sub:     getenv("RLM_SUB_AGENT"),
	}
	if names.Primary == "" && cfg != nil {
		names.Primary = cfg.PrimaryAgent
	}
	if names.Sub == "" && cfg != nil {
		names.Sub = cfg.SubAgent
	}
	if names.Primary == "" {
		names.Primary = DefaultPrimaryModel
	}
	if names.Sub == "" {
		names.Sub = DefaultSubModel
	}
	return names
}

// RuntimeModels is the resolved model pair used for a whole invocation tree.
// Resolved once at the top level and shared read-only by every descendant.
type RuntimeModels struct {
	PrimaryAgent string
	SubAgent     string
	Warnings     []string
}

// ModelFor returns the model for an agent at the given depth: the primary
// model at the root, the sub model everywhere below.
func (r *RuntimeModels) ModelFor(depth int) string {
	if depth == 0 {
		return r.PrimaryAgent
	}
	return r.SubAgent
}

// ResolveRuntimeModels maps the requested model pair onto the provider's
// catalog. For each role: an exact match wins silently; otherwise the
// role's env-var fallback, then the built-in ordered fallback chain, then
// the first catalog entry. Every non-identity selection appends a warning
// naming the role, the requested id, and the chosen id. Deterministic given
// its inputs.
func ResolveRuntimeModels(requested ModelNames, available []string, getenv func(string) string) (*RuntimeModels, error) {
	if len(available) == 0 {
		return nil, rlmerr.New(rlmerr.KindModel, "model catalog is empty")
	}

	resolved := &RuntimeModels{}
	resolved.PrimaryAgent = pickModel("primary", requested.Primary,
		getenv("RLM_FALLBACK_PRIMARY"), primaryFallbacks, available, &resolved.Warnings)
	resolved.SubAgent = pickModel("sub", requested.Sub,
		getenv("RLM_FALLBACK_SUB"), subFallbacks, available, &resolved.Warnings)
	return resolved, nil
}

func pickModel(role, requested, envFallback string, chain []string, available []string, warnings *[]string) string {
	if contains(available, requested) {
		return requested
	}

	chosen := ""
	switch {
	case envFallback != "" && contains(available, envFallback):
		chosen = envFallback
	default:
		for _, candidate := range chain {
			if contains(available, candidate) {
				chosen = candidate
				break
			}
		}
		if chosen == "" {
			chosen = available[0]
		}
	}

	*warnings = append(*warnings, fmt.Sprintf(
		"%s agent %q is not available, using %q instead", role, requested, chosen))
	return chosen
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
