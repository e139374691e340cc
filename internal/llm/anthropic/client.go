// Package anthropic implements llm.Structurer on the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"resume-ingest/internal/llm"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxTokens = 4096
)

// Client calls Messages.New and returns the concatenated text blocks.
type Client struct {
	client anthropic.Client
	model  string
}

// Options configure NewClient. BaseURL is only set in tests.
type Options struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	BaseURL    string
	MaxRetries int
}

// NewClient builds an Anthropic client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Anthropic")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &Client{client: anthropic.NewClient(reqOpts...), model: opts.Model}, nil
}

// Structure sends the payload as the user turn with the operation's system prompt.
func (c *Client) Structure(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	system, user, err := llm.Messages(req)
	if err != nil {
		return nil, err
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, fmt.Errorf("anthropic response empty content")
	}

	llm.LogUsage("anthropic", c.model, req.Operation, &llm.Usage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	})
	return json.RawMessage(content), nil
}

var _ llm.Structurer = (*Client)(nil)
