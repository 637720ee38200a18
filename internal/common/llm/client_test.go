package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subsidy-concierge/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.DeepSeekConfig{
		BaseURL:     serverURL,
		APIKey:      "test-key",
		Model:       "deepseek-chat",
		Timeout:     5000,
		MaxTokens:   2000,
		Temperature: 0.7,
	})
}

func completionBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-chat", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "test prompt", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(`{"response":"こんにちは"}`)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	content, err := client.Complete(context.Background(), "test prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"response":"こんにちは"}`, content)
}

func TestClient_Complete_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bare object",
			input:    `{"response":"ok"}`,
			expected: `{"response":"ok"}`,
		},
		{
			name:     "json code fence",
			input:    "```json\n{\"response\":\"ok\"}\n```",
			expected: `{"response":"ok"}`,
		},
		{
			name:     "plain code fence",
			input:    "```\n{\"response\":\"ok\"}\n```",
			expected: `{"response":"ok"}`,
		},
		{
			name:     "prose around object",
			input:    "Here is the result: {\"response\":\"ok\"} hope it helps",
			expected: `{"response":"ok"}`,
		},
		{
			name:     "array payload",
			input:    "answer: [1, 2, 3] done",
			expected: `[1, 2, 3]`,
		},
		{
			name:     "braces inside strings",
			input:    `{"response":"a {nested} brace"}`,
			expected: `{"response":"a {nested} brace"}`,
		},
		{
			name:     "nested objects",
			input:    `prefix {"a":{"b":1},"c":[{"d":2}]} suffix`,
			expected: `{"a":{"b":1},"c":[{"d":2}]}`,
		},
		{
			name:     "no json at all",
			input:    "  just prose  ",
			expected: "just prose",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.input))
		})
	}
}

func TestExtractJSON_ParsesAfterExtraction(t *testing.T) {
	raw := "```json\n{\"response\": \"検索します\", \"shouldSearch\": true}\n```"
	var payload struct {
		Response     string `json:"response"`
		ShouldSearch bool   `json:"shouldSearch"`
	}
	err := json.Unmarshal([]byte(ExtractJSON(raw)), &payload)
	require.NoError(t, err)
	assert.Equal(t, "検索します", payload.Response)
	assert.True(t, payload.ShouldSearch)
}
