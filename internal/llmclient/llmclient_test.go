package llmclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehealer/autofix-engine/internal/llmclient"
)

func TestClient_Complete_OpenAICompatible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": "package main\n\nfunc main() {}\n"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := llmclient.New(llmclient.OpenAI, "test-key", "gpt-4o-mini", nil).WithBaseURL(srv.URL)
	out, err := c.Complete(context.Background(), "fix this", 512)
	require.NoError(t, err)
	assert.Contains(t, out, "func main()")
}

func TestClient_Complete_UnsupportedProvider(t *testing.T) {
	c := llmclient.New(llmclient.Provider("made-up"), "k", "m", nil)
	_, err := c.Complete(context.Background(), "p", 10)
	assert.Error(t, err)
}

func TestClient_Complete_RejectsWhenRateLimited(t *testing.T) {
	c := llmclient.New(llmclient.OpenAI, "test-key", "gpt-4o-mini", nil).WithRateLimiter(0, time.Hour)
	_, err := c.Complete(context.Background(), "fix this", 512)
	assert.ErrorContains(t, err, "rate limit")
}
