// Package llmclient implements a multi-provider HTTP client behind the
// single-method contract the Generative fixer needs:
// Complete(ctx, prompt, maxTokens) (string, error). Each provider's payload
// shape and auth headers are handled directly; no tool-call or streaming
// surface is exposed, since the repair loop only ever needs one completion
// at a time.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// Provider identifies which vendor API Client talks to.
type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
	Gemini    Provider = "gemini"
	DeepSeek  Provider = "deepseek"
	LiteLLM   Provider = "litellm"
)

// Client implements autofix.LLM over one of the providers above.
type Client struct {
	provider    Provider
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *logrus.Logger
	limiter     *RateLimiter
	cache       *completionCache
}

var _ autofix.LLM = (*Client)(nil)

// New builds a Client. apiKey is read directly as a plain string; the
// Dagger Executor backend is a separate Dagger session and has no bearing
// on how this client authenticates.
func New(provider Provider, apiKey, model string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if err := validateProvider(provider); err != nil {
		logger.WithField("provider", provider).Warn("llmclient: constructing a client for an unrecognized provider; Complete will fail")
	}
	return &Client{
		provider:    provider,
		apiKey:      apiKey,
		baseURL:     baseURLFor(provider),
		model:       model,
		temperature: 0,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		logger:      logger,
		limiter:     NewRateLimiter(20, 3*time.Second),
		cache:       newCompletionCache(64, 2*time.Minute),
	}
}

// NewFromEnv builds a Client from MODEL_BACKEND/MODEL_NAME and the
// provider's conventional API-key environment variable.
func NewFromEnv() *Client {
	provider := Provider(envOr("MODEL_BACKEND", string(OpenAI)))
	model := envOr("MODEL_NAME", defaultModelFor(provider))
	return New(provider, os.Getenv(apiKeyEnvVar(provider)), model, logrus.New())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// validateProvider reports an error for a provider name outside the known
// set. New logs it as a warning and still returns a Client; Complete on
// such a Client fails with an "unsupported provider" error.
func validateProvider(p Provider) error {
	for _, known := range []Provider{OpenAI, Anthropic, Gemini, DeepSeek, LiteLLM} {
		if p == known {
			return nil
		}
	}
	return fmt.Errorf("llmclient: unsupported provider %q", p)
}

func apiKeyEnvVar(p Provider) string {
	switch p {
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	case Gemini:
		return "GEMINI_API_KEY"
	case DeepSeek:
		return "DEEPSEEK_API_KEY"
	case LiteLLM:
		return "LITELLM_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func defaultModelFor(p Provider) string {
	switch p {
	case Anthropic:
		return "claude-3-5-sonnet-latest"
	case Gemini:
		return "gemini-1.5-pro"
	case DeepSeek:
		return "deepseek-chat"
	default:
		return "gpt-4o-mini"
	}
}

func baseURLFor(p Provider) string {
	switch p {
	case Anthropic:
		return "https://api.anthropic.com"
	case Gemini:
		return "https://generativelanguage.googleapis.com"
	case DeepSeek:
		return "https://api.deepseek.com"
	case LiteLLM:
		return envOr("LITELLM_BASE_URL", "http://localhost:4000")
	default:
		return "https://api.openai.com"
	}
}

// WithBaseURL overrides the provider's default endpoint, mirroring the
// teacher's With* builder pattern. Primarily useful for pointing at a local
// LiteLLM proxy or, in tests, an httptest server standing in for the
// provider API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// WithModel overrides the model name set at construction time.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// WithRateLimiter replaces the default token bucket (a burst of 20 calls,
// refilled at one token every 3s).
func (c *Client) WithRateLimiter(maxTokens int, refillRate time.Duration) *Client {
	c.limiter = NewRateLimiter(maxTokens, refillRate)
	return c
}

// Complete sends prompt to the configured provider and returns its raw text
// completion. Temperature is fixed at 0, since a repair candidate should be
// the provider's best single guess rather than a sampled one.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	defer func() {
		c.logger.WithField("provider", c.provider).WithField("duration", time.Since(start)).Debug("llm completion finished")
	}()

	cacheKey := fmt.Sprintf("%s|%d|%s", c.model, maxTokens, prompt)
	if cached, ok := c.cache.get(cacheKey); ok {
		c.logger.WithField("provider", c.provider).Debug("llm completion served from cache")
		return cached, nil
	}

	if c.limiter != nil && !c.limiter.Allow() {
		return "", fmt.Errorf("llmclient: rate limit exceeded for provider %s", c.provider)
	}

	out, err := c.dispatch(ctx, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	c.cache.set(cacheKey, out)
	return out, nil
}

func (c *Client) dispatch(ctx context.Context, prompt string, maxTokens int) (string, error) {
	switch c.provider {
	case Anthropic:
		return c.completeAnthropic(ctx, prompt, maxTokens)
	case Gemini:
		return c.completeGemini(ctx, prompt, maxTokens)
	case OpenAI, DeepSeek, LiteLLM:
		return c.completeOpenAICompatible(ctx, prompt, maxTokens)
	default:
		return "", fmt.Errorf("llmclient: unsupported provider %q", c.provider)
	}
}

func (c *Client) completeOpenAICompatible(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
		"max_tokens":  maxTokens,
	}

	resp, err := c.post(ctx, "/v1/chat/completions", payload, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", err
	}

	choices, ok := resp["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("llmclient: no choices in response")
	}
	choice, _ := choices[0].(map[string]interface{})
	message, _ := choice["message"].(map[string]interface{})
	content, _ := message["content"].(string)
	return content, nil
}

func (c *Client) completeAnthropic(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": c.temperature,
	}

	resp, err := c.post(ctx, "/v1/messages", payload, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	content, ok := resp["content"].([]interface{})
	if !ok || len(content) == 0 {
		return "", fmt.Errorf("llmclient: no content in response")
	}
	block, _ := content[0].(map[string]interface{})
	text, _ := block["text"].(string)
	return text, nil
}

func (c *Client) completeGemini(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]interface{}{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     c.temperature,
			"maxOutputTokens": maxTokens,
		},
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey)
	resp, err := c.post(ctx, path, payload, nil)
	if err != nil {
		return "", err
	}

	candidates, ok := resp["candidates"].([]interface{})
	if !ok || len(candidates) == 0 {
		return "", fmt.Errorf("llmclient: no candidates in response")
	}
	candidate, _ := candidates[0].(map[string]interface{})
	content, _ := candidate["content"].(map[string]interface{})
	parts, _ := content["parts"].([]interface{})
	if len(parts) == 0 {
		return "", fmt.Errorf("llmclient: empty candidate content")
	}
	part, _ := parts[0].(map[string]interface{})
	text, _ := part["text"].(string)
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, headers map[string]string) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llmclient: marshal payload: %w", err)
	}

	var raw []byte
	var statusCode int
	err = retryWithBackoff(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if reqErr != nil {
			return fmt.Errorf("llmclient: build request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return fmt.Errorf("llmclient: request failed: %w", doErr)
		}
		defer resp.Body.Close()
		statusCode = resp.StatusCode

		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("llmclient: read response: %w", readErr)
		}
		raw = respBody
		if resp.StatusCode >= 500 {
			return fmt.Errorf("llmclient: provider returned %d: %s", resp.StatusCode, string(raw))
		}
		return nil
	}, 2, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	if statusCode >= 400 {
		return nil, fmt.Errorf("llmclient: provider returned %d: %s", statusCode, string(raw))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("llmclient: unmarshal response: %w", err)
	}
	return result, nil
}
