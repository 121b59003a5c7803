package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/docqa/internal/core/ports/driven"
)

func TestNewGenerator_Defaults(t *testing.T) {
	g := NewGenerator(Config{})
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.Equal(t, DefaultBaseURL, g.baseURL)
}

func TestGenerator_Generate(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "  Plants store energy as glucose.\n", Done: true})
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL, Model: "test-model"})
	answer, err := g.Generate(context.Background(), "What do plants store?", driven.GenerationParams{
		MaxTokens:   256,
		Temperature: 0.2,
	})
	require.NoError(t, err)

	assert.Equal(t, "Plants store energy as glucose.", answer)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, "What do plants store?", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	require.NotNil(t, gotReq.Options)
	assert.Equal(t, 256, gotReq.Options.NumPredict)
	assert.InDelta(t, 0.2, gotReq.Options.Temperature, 1e-9)
}

func TestGenerator_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL})
	_, err := g.Generate(context.Background(), "prompt", driven.GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGenerator_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL})
	assert.NoError(t, g.Ping(context.Background()))
}

func TestGenerator_Ping_Unreachable(t *testing.T) {
	g := NewGenerator(Config{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, g.Ping(context.Background()))
}
