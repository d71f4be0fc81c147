// Package gemini implements the AI client port on Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"github.com/hamdani2020/EdAgent-sub002/internal/adapter/observability"
	"github.com/hamdani2020/EdAgent-sub002/internal/config"
	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

const provider = "gemini"

// Client calls Gemini with per-request timeouts and exponential backoff.
// GenerateText uses the chat model at a conversational temperature;
// GenerateStructured uses the reasoning model at a low temperature so JSON
// envelopes come back stable.
type Client struct {
	client      *genai.Client
	chatModel   string
	reasonModel string
	chatTemp    float32
	structTemp  float32
	timeout     time.Duration

	maxElapsed time.Duration
	initialIvl time.Duration
	maxIvl     time.Duration
	multiplier float64
}

// New builds a Gemini-backed AI client from configuration.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("op=gemini.new: %w", err)
	}
	maxElapsed, initial, maxIvl, mult := cfg.GetAIBackoffConfig()
	return &Client{
		client:      cl,
		chatModel:   cfg.GeminiChatModel,
		reasonModel: cfg.GeminiReasonModel,
		chatTemp:    float32(cfg.GeminiTemperature),
		structTemp:  float32(cfg.GeminiStructuredT),
		timeout:     cfg.AIRequestTimeout,
		maxElapsed:  maxElapsed,
		initialIvl:  initial,
		maxIvl:      maxIvl,
		multiplier:  mult,
	}, nil
}

// GenerateText produces free-form prose from the chat model.
func (c *Client) GenerateText(ctx domain.Context, prompt string) (string, error) {
	return c.generate(ctx, "generate_text", c.chatModel, c.chatTemp, prompt)
}

// GenerateStructured produces text expected to carry a JSON object, from the
// reasoning model at low temperature. Parsing stays with the caller.
func (c *Client) GenerateStructured(ctx domain.Context, prompt string) (string, error) {
	return c.generate(ctx, "generate_structured", c.reasonModel, c.structTemp, prompt)
}

func (c *Client) generate(ctx domain.Context, operation, model string, temp float32, prompt string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialIvl
	bo.MaxInterval = c.maxIvl
	bo.MaxElapsedTime = c.maxElapsed
	bo.Multiplier = c.multiplier

	var text string
	start := time.Now()
	err := backoff.Retry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.Models.GenerateContent(callCtx, model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature: genai.Ptr(temp),
		})
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		text = resp.Text()
		if text == "" {
			return fmt.Errorf("op=gemini.generate: empty response")
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	observability.RecordAIRequest(provider, operation, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("op=gemini.generate: model=%s: %w: %v", model, domain.ErrAIUnavailable, err)
	}
	return text, nil
}
