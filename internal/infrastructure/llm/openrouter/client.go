package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/resilience"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.3
)

// Client implements the completion oracle over an OpenRouter-compatible
// chat completions API. The oracle is a single-attempt call by default;
// the shared executor only adds the circuit breaker.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	MaxTokens          int
	Temperature        float64
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, model string, options Options) *Client {
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := options.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

func (c *Client) Complete(ctx context.Context, messages []domain.PromptMessage) (string, error) {
	request := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
	}

	var text string
	call := func(callCtx context.Context) error {
		var response struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := c.postJSON(callCtx, "/chat/completions", request, &response, "complete"); err != nil {
			return err
		}
		if len(response.Choices) == 0 {
			return fmt.Errorf("completion response has no choices")
		}
		text = strings.TrimSpace(response.Choices[0].Message.Content)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openrouter.complete", call, classifyOracleError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapOracleError("complete", err)
	}
	return text, nil
}
