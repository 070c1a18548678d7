package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/config"
	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

func envMap(m map[string]string) func(string) string {
	return func(name string) string { return m[name] }
}

func TestResolveClientConfig(t *testing.T) {
	cfg, err := ResolveClientConfig(envMap(map[string]string{
		"RLM_MODEL_BASE_URL": "https://proxy.example.com/v1/",
		"RLM_MODEL_API_KEY":  "sk-test",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.example.com/v1", cfg.BaseURL)
	assert.Equal(t, "sk-test", cfg.APIKey)
}

func TestResolveClientConfigMissing(t *testing.T) {
	_, err := ResolveClientConfig(envMap(map[string]string{
		"RLM_MODEL_API_KEY": "sk-test",
	}))
	require.Error(t, err)
	assert.Equal(t, rlmerr.KindConfig, rlmerr.KindOf(err))

	_, err = ResolveClientConfig(envMap(map[string]string{
		"RLM_MODEL_BASE_URL": "https://proxy.example.com/v1",
	}))
	require.Error(t, err)
}

func TestResolveClientConfigRequiresV1(t *testing.T) {
	_, err := ResolveClientConfig(envMap(map[string]string{
		"RLM_MODEL_BASE_URL": "https://proxy.example.com/api",
		"RLM_MODEL_API_KEY":  "sk-test",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/v1")
}

func TestResolveModelNamesPrecedence(t *testing.T) {
	cfg := &config.Config{PrimaryAgent: "cfg-primary", SubAgent: "cfg-sub"}

	// Env wins over config.
	names := ResolveModelNames(cfg, envMap(map[string]string{
		"RLM_PRIMARY_AGENT": "env-primary",
	}))
	assert.Equal(t, "env-primary", names.Primary)
	assert.Equal(t, "cfg-sub", names.Sub)

	// Defaults when nothing is set.
	names = ResolveModelNames(nil, envMap(nil))
	assert.Equal(t, DefaultPrimaryModel, names.Primary)
	assert.Equal(t, DefaultSubModel, names.Sub)
}

func TestResolveRuntimeModelsExactMatch(t *testing.T) {
	models, err := ResolveRuntimeModels(
		ModelNames{Primary: "gpt-5", Sub: "gpt-5-codex-mini"},
		[]string{"gpt-5", "gpt-5-codex-mini"},
		envMap(nil),
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-5", models.PrimaryAgent)
	assert.Equal(t, "gpt-5-codex-mini", models.SubAgent)
	assert.Empty(t, models.Warnings)
}

func TestResolveRuntimeModelsBuiltinFallback(t *testing.T) {
	models, err := ResolveRuntimeModels(
		ModelNames{Primary: "gpt-6", Sub: "gpt-5-codex-mini"},
		[]string{"gpt-5", "gpt-5-codex-mini"},
		envMap(nil),
	)
	require.NoError(t, err)

	assert.Equal(t, "gpt-5", models.PrimaryAgent)
	require.Len(t, models.Warnings, 1)
	assert.Contains(t, models.Warnings[0], "gpt-6")
	assert.Contains(t, models.Warnings[0], "gpt-5")
	assert.Contains(t, models.Warnings[0], "primary")
}

func TestResolveRuntimeModelsEnvFallbackWins(t *testing.T) {
	models, err := ResolveRuntimeModels(
		ModelNames{Primary: "gpt-6", Sub: "missing-sub"},
		[]string{"gpt-5", "custom-model", "other-sub"},
		envMap(map[string]string{
			"RLM_FALLBACK_PRIMARY": "custom-model",
			"RLM_FALLBACK_SUB":     "not-in-catalog",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "custom-model", models.PrimaryAgent)
	// Env fallback not in catalog: built-in chain misses too, first entry wins.
	assert.Equal(t, "gpt-5", models.SubAgent)
	assert.Len(t, models.Warnings, 2)
}

func TestResolveRuntimeModelsFirstAvailableLastResort(t *testing.T) {
	models, err := ResolveRuntimeModels(
		ModelNames{Primary: "gpt-6", Sub: "gpt-7"},
		[]string{"weird-model"},
		envMap(nil),
	)
	require.NoError(t, err)

	assert.Equal(t, "weird-model", models.PrimaryAgent)
	assert.Equal(t, "weird-model", models.SubAgent)
}

func TestResolveRuntimeModelsEmptyCatalog(t *testing.T) {
	_, err := ResolveRuntimeModels(ModelNames{}, nil, envMap(nil))
	require.Error(t, err)
	assert.Equal(t, rlmerr.KindModel, rlmerr.KindOf(err))
}

func TestModelFor(t *testing.T) {
	models := &RuntimeModels{PrimaryAgent: "big", SubAgent: "small"}
	assert.Equal(t, "big", models.ModelFor(0))
	assert.Equal(t, "small", models.ModelFor(1))
	assert.Equal(t, "small", models.ModelFor(3))
}

func TestFetchAvailableModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"id":"gpt-5"},{"id":""},{"id":"gpt-5-codex-mini"}]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL + "/v1", APIKey: "sk-test"}, nil)
	ids, err := client.FetchAvailableModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-5", "gpt-5-codex-mini"}, ids)
}

func TestFetchAvailableModelsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL + "/v1", APIKey: "k"}, nil)
	_, err := client.FetchAvailableModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, rlmerr.KindProxy, rlmerr.KindOf(err))
}

func TestFetchAvailableModelsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL + "/v1", APIKey: "k"}, nil)
	_, err := client.FetchAvailableModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, rlmerr.KindProxy, rlmerr.KindOf(err))
}

func TestFetchAvailableModelsEmptyCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL + "/v1", APIKey: "k"}, nil)
	_, err := client.FetchAvailableModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, rlmerr.KindModel, rlmerr.KindOf(err))
}

func TestSmoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"gpt-5"},{"id":"gpt-5-codex-mini"}]}`))
	}))
	defer srv.Close()

	result, err := Smoke(context.Background(), nil, envMap(map[string]string{
		"RLM_MODEL_BASE_URL": srv.URL + "/v1",
		"RLM_MODEL_API_KEY":  "sk-test",
	}), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.CatalogSize)
	assert.Equal(t, "gpt-5", result.PrimaryAgent)
	assert.Equal(t, "gpt-5-codex-mini", result.SubAgent)
	assert.Empty(t, result.Warnings)
}
