// Package claude implements the triage Generator interface on the Anthropic
// Messages API.
package claude

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// responseTokens bounds the generation; the triage schema is small.
	responseTokens = 1024

	// callTimeout is the single-attempt budget. The engine does not retry;
	// a timeout surfaces as a generation error and triggers rule fallback.
	callTimeout = 60 * time.Second
)

// Client calls the Claude API for triage generation.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude generation client with the given API key and model.
func New(apiKey, model string) *Client {
	return newClient(model, option.WithAPIKey(apiKey))
}

func newClient(model string, opts ...option.RequestOption) *Client {
	// One attempt per call. The SDK retries transient failures by default,
	// which would stack on top of the engine's rule fallback; appended last
	// so no caller option re-enables it.
	opts = append(opts, option.WithMaxRetries(0))
	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Generate sends one prompt and returns the first text block of the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude generate: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("claude generate: no text content in response")
}
