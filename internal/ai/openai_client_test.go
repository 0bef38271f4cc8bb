package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"text_completion","choices":[{"text":"Open the Leave module.","index":0}]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", "phi3:mini", "all-minilm")
	stops := []string{"a", "b", "c", "d", "e", "f"}
	out, err := c.Generate(t.Context(), "prompt", GenerateOptions{Temperature: 0.05, TopP: 0.9, MaxTokens: 120, Stop: stops})
	require.NoError(t, err)
	assert.Equal(t, "Open the Leave module.", out)

	assert.Equal(t, "phi3:mini", got["model"])
	assert.Equal(t, "prompt", got["prompt"])
	assert.EqualValues(t, 120, got["max_tokens"])
	assert.Len(t, got["stop"], 6)
}

func TestOpenAIClient_CapsStops(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"text":"ok"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "gpt-3.5-turbo-instruct", "text-embedding-3-small", srv.URL)
	_, err := c.Generate(t.Context(), "p", GenerateOptions{Stop: []string{"1", "2", "3", "4", "5"}})
	require.NoError(t, err)
	assert.Len(t, got["stop"], 4)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "m", "e", srv.URL)
	_, err := c.Generate(t.Context(), "p", GenerateOptions{})
	assert.Error(t, err)
}

func TestOllamaClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25]}]}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "phi3:mini", "all-minilm")
	vec, err := c.Embed(t.Context(), "leave policy")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}
