package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultTimeout  = 60 * time.Second
)

// Config captures the runtime settings required to talk to the model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets how many requests one completion may issue.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the cap it doubles up to.
func WithRetryBackoff(base, limit time.Duration) Option {
	return func(c *Client) { c.retry.base, c.retry.limit = base, limit }
}

// WithSleeper replaces the wait between retries. Tests use it to record
// delays without sleeping.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleeper = sleep }
}

// NewClient constructs a client using the supplied settings.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeoutFor(cfg.TimeoutSeconds)},
		retry: defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the experimental_llm section, routing
// requests through the configured proxy.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	s := cfg.GetLLM()
	opts = append([]Option{WithHTTPClient(cfg.HTTPClient(timeoutFor(s.TimeoutSeconds)))}, opts...)
	return NewClient(Config{
		APIKey:         s.APIKey,
		BaseURL:        s.BaseURL,
		Model:          s.Model,
		TimeoutSeconds: s.TimeoutSeconds,
	}, opts...)
}

func timeoutFor(seconds int) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultTimeout
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// CompleteJSON asks for a JSON-only completion and returns the message
// content as the model produced it.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case c.cfg.APIKey == "":
		return "", errors.New("llm complete: api key required")
	case systemPrompt == "" || userPrompt == "":
		return "", errors.New("llm complete: system and user prompts required")
	}
	return c.complete(ctx, "llm complete", newChatRequest(c.cfg.Model, systemPrompt, userPrompt))
}

// HealthCheck issues a minimal request to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &reply); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !reply.OK {
		return errors.New("llm health: model did not answer ok")
	}
	return nil
}

// complete sends req until it yields content or the retry policy gives up.
func (c *Client) complete(ctx context.Context, op string, req chatRequest) (string, error) {
	var err error
	for attempt := 1; ; attempt++ {
		var content string
		content, err = c.once(ctx, op, req)
		if err == nil {
			return content, nil
		}
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			break
		}
		if serr := c.retry.wait(ctx, delay); serr != nil {
			return "", serr
		}
	}
	if attempts := c.retry.max(); attempts > 1 && isRetryable(err) {
		return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, err)
	}
	return "", err
}

func (c *Client) once(ctx context.Context, op string, req chatRequest) (string, error) {
	resp, body, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", &emptyContentError{Op: op, Snippet: summarizePayloadSnippet(string(body))}
	}
	content, finish := resp.content()
	if content == "" {
		return "", &emptyContentError{Op: op, FinishReason: finish, Snippet: summarizePayloadSnippet(string(body))}
	}
	return content, nil
}
