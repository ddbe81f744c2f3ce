package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"labkb/internal/domain"
)

// Provider is one configured OpenAI-compatible chat endpoint.
type Provider struct {
	BaseURL   string
	Model     string
	APIKeyEnv string // empty for keyless endpoints (local ollama)
}

// Client calls OpenAI-compatible chat-completion endpoints with bounded
// retries. Transport failures, timeouts and non-2xx responses are retried
// with exponential backoff up to the configured attempt count; an unknown
// provider or a missing API key fails immediately.
type Client struct {
	providers  map[string]Provider
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Options tunes the client. Zero values pick the defaults.
type Options struct {
	MaxRetries     int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RequestsPerMin int // 0 disables rate limiting
}

func NewClient(providers map[string]Provider, opts Options, logger *zap.Logger) *Client {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 90 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMin)/60.0), opts.RequestsPerMin)
	}

	return &Client{
		providers:  providers,
		maxRetries: opts.MaxRetries,
		limiter:    limiter,
		logger:     logger,
		httpClient: &http.Client{
			Timeout: opts.ReadTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
			},
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate answers userPrompt constrained by systemPrompt via the named
// provider.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt, provider string) (string, error) {
	p, ok := c.providers[provider]
	if !ok {
		return "", &domain.GenerationError{
			Provider: provider,
			Err:      fmt.Errorf("unknown provider"),
		}
	}

	apiKey := ""
	if p.APIKeyEnv != "" {
		apiKey = os.Getenv(p.APIKeyEnv)
		if apiKey == "" {
			return "", &domain.GenerationError{
				Provider: provider,
				Err:      fmt.Errorf("API key not found in environment variable %s", p.APIKeyEnv),
			}
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &domain.GenerationError{Provider: provider, Err: err}
		}
	}

	var answer string
	attempt := 0
	operation := func() error {
		attempt++
		text, err := c.call(ctx, p, apiKey, systemPrompt, userPrompt, provider)
		if err != nil {
			c.logger.Warn("generation attempt failed",
				zap.String("provider", provider),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		answer = text
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries-1)), ctx))
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (c *Client) call(ctx context.Context, p Provider, apiKey, systemPrompt, userPrompt, provider string) (string, error) {
	payload := chatRequest{
		Model: p.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", backoff.Permanent(&domain.GenerationError{Provider: provider, Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", backoff.Permanent(&domain.GenerationError{Provider: provider, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.GenerationError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.GenerationError{Provider: provider, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.GenerationError{
			Provider: provider,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", truncate(string(body), 200)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &domain.GenerationError{Provider: provider, Err: err}
	}
	if parsed.Error != nil {
		return "", &domain.GenerationError{
			Provider: provider,
			Err:      fmt.Errorf("%s", parsed.Error.Message),
		}
	}
	if len(parsed.Choices) == 0 {
		return "", &domain.GenerationError{Provider: provider, Err: fmt.Errorf("empty choices")}
	}

	return parsed.Choices[0].Message.Content, nil
}

// Providers lists the configured provider names in stable order.
func (c *Client) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
