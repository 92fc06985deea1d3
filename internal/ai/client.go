package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/metrics"
	"github.com/cpl-agent/internal/search"
	"github.com/cpl-agent/pkg/logger"
	"github.com/cpl-agent/pkg/ratelimit"
)

// Client wraps the Anthropic SDK client
type Client struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	rateLimiter *ratelimit.MultiLimiter
	searcher    search.Searcher
	maxResults  int
	log         *logger.Logger
}

// NewClient creates a new Anthropic client
func NewClient(cfg config.AnthropicConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger, opts ...option.RequestOption) *Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &Client{
		client:      anthropic.NewClient(reqOpts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
		maxResults:  5,
		log:         log.WithComponent("ai"),
	}
}

// WithSearcher enables the web_search tool backed by s
func (c *Client) WithSearcher(s search.Searcher, maxResults int) *Client {
	c.searcher = s
	if maxResults > 0 {
		c.maxResults = maxResults
	}
	return c
}

// Complete sends a single message to Claude and returns the text response
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	message, err := c.send(ctx, anthropic.MessageNewParams{
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	})
	if err != nil {
		return "", err
	}
	return textOf(message), nil
}

// send fills model settings, waits for the rate limiter and records metrics
func (c *Client) send(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterAnthropic); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	params.Model = anthropic.Model(c.model)
	params.MaxTokens = int64(c.maxTokens)
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}

	c.log.Debug().
		Str("model", c.model).
		Int("max_tokens", c.maxTokens).
		Int("messages", len(params.Messages)).
		Msg("Sending request to Claude")

	start := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		metrics.ObserveLLMGeneration(c.model, time.Since(start), 0, 0, err)
		c.log.Error().Err(err).Msg("Claude API error")
		return nil, fmt.Errorf("claude API error: %w", err)
	}

	metrics.ObserveLLMGeneration(c.model, time.Since(start), message.Usage.InputTokens, message.Usage.OutputTokens, nil)
	c.log.Debug().
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Str("stop_reason", string(message.StopReason)).
		Msg("Received Claude response")

	return message, nil
}

// textOf concatenates the text blocks of a message
func textOf(message *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
