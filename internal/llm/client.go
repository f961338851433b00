// Package llm wraps the upstream completion API behind a small streaming
// client so the chat layer does not depend on langchaingo directly.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer is the surface the chat orchestrator consumes.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error)
}

// CompletionRequest is a single assembled prompt, optionally with an image
// attachment and a per-request model override.
type CompletionRequest struct {
	Prompt string
	Image  string // data URL or https URL, forwarded as-is
	Model  string
}

// Client talks to an OpenAI-compatible completion endpoint.
type Client struct {
	llm     llms.Model
	timeout time.Duration
}

func New(baseURL, token, defaultModel string, timeout time.Duration) (*Client, error) {
	if token == "" {
		return nil, errors.New("llm token is required")
	}
	model, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(defaultModel),
	)
	if err != nil {
		return nil, err
	}
	return &Client{llm: model, timeout: timeout}, nil
}

// Complete streams a completion, invoking onDelta for each chunk, and
// returns the accumulated text once the upstream finishes.
func (c *Client) Complete(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := []llms.ContentPart{llms.TextPart(req.Prompt)}
	if req.Image != "" {
		parts = append(parts, llms.ImageURLPart(req.Image))
	}
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}

	var b strings.Builder
	opts := []llms.CallOption{
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			b.Write(chunk)
			if onDelta != nil {
				onDelta(string(chunk))
			}
			return nil
		}),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}

	// Streaming already accumulated the text; fall back to the response
	// body for backends that ignore the streaming func.
	if b.Len() > 0 {
		return b.String(), nil
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Content, nil
	}
	return "", nil
}
