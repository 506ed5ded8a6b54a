// Package openai provides a Reasoner implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/secmatch/internal/domain/ports"
	"github.com/ersonp/secmatch/internal/infrastructure/config"
)

const reviewSystemPrompt = `You are a securities reference-data analyst. You compare two security records from different data feeds and decide whether they describe the same real-world financial instrument.

Respond in EXACTLY one of these two formats and nothing else:
APPROVED - <short reason>
REJECTED - <short reason>`

const reviewUserPrompt = `Record 1 (%s):
  Name: %s
  Issuer: %s
  Asset type: %s

Record 2 (%s):
  Name: %s
  Issuer: %s
  Asset type: %s

Embedding similarity score: %.4f

Are these the same security?`

// Client implements the Reasoner port using OpenAI.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI reasoning client.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openai.NewClient(cfg.APIKey)

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// ReviewMatch asks the oracle whether a pending pair is the same
// security and returns the raw response text. Verdict parsing happens
// in the adjudicator, not here.
func (c *Client) ReviewMatch(ctx context.Context, req ports.ReviewRequest) (string, error) {
	prompt := fmt.Sprintf(reviewUserPrompt,
		req.Entity1.Source, req.Entity1.NameClean, req.Entity1.IssuerClean, req.Entity1.AssetType,
		req.Entity2.Source, req.Entity2.NameClean, req.Entity2.IssuerClean, req.Entity2.AssetType,
		req.Score,
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: reviewSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
