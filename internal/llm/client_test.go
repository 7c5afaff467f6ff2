package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Model: "gpt-4o"})
	require.NoError(t, err)

	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestCompleteSendsRequest(t *testing.T) {
	var captured chatRequest

	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  SELECT 1  "}},
			},
		})
	})

	text, err := client.Complete(context.Background(), "write sql", Options{Temperature: 0, MaxTokens: 512})

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", text)
	assert.Equal(t, "gpt-4o", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "write sql", captured.Messages[0].Content)
	assert.Zero(t, captured.Temperature)
	assert.Equal(t, 512, captured.MaxTokens)
}

func TestCompleteHTTPError(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), "prompt", Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteAPIError(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model overloaded"},
		})
	})

	_, err := client.Complete(context.Background(), "prompt", Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestCompleteNoChoices(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := client.Complete(context.Background(), "prompt", Options{})
	assert.Error(t, err)
}
