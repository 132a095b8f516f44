// Package openai implements the captioning capability on top of an
// OpenAI-compatible multimodal chat model via langchaingo.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tanimon/multimodal-rag-chatbot/schema"
)

const (
	defaultModel  = "gpt-4o-mini"
	defaultPrompt = "Describe the image in detail."
)

// Option configures the Client.
type Option func(*Client)

// WithPrompt overrides the instruction sent alongside each image.
func WithPrompt(prompt string) Option {
	return func(c *Client) {
		if prompt != "" {
			c.prompt = prompt
		}
	}
}

// WithModel overrides the multimodal chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.modelName = model
		}
	}
}

// Client describes images with a multimodal chat model.
type Client struct {
	model     llms.Model
	modelName string
	prompt    string
}

// NewClient creates a captioning client. The API key is resolved by the
// underlying langchaingo client (OPENAI_API_KEY).
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{modelName: defaultModel, prompt: defaultPrompt}
	for _, opt := range opts {
		opt(c)
	}
	model, err := openai.New(openai.WithModel(c.modelName))
	if err != nil {
		return nil, fmt.Errorf("create captioning model: %w", err)
	}
	c.model = model
	return c, nil
}

// Describe generates a natural-language description for the image.
func (c *Client) Describe(ctx context.Context, image schema.ImageDescriptor) (string, error) {
	payload, err := base64.StdEncoding.DecodeString(image.Base64)
	if err != nil {
		return "", fmt.Errorf("decode image payload for %s: %w", image.URL, err)
	}
	message := llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(image.MimeType, payload),
			llms.TextPart(c.prompt),
		},
	}
	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{message})
	if err != nil {
		return "", fmt.Errorf("describe image %s: %w", image.URL, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("describe image %s: model returned no choices", image.URL)
	}
	return resp.Choices[0].Content, nil
}
