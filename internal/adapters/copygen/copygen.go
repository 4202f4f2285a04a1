// Package copygen implements listing copy generation on the OpenAI chat API.
package copygen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/propkit/marketing-kit-api/config"
	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

const systemPrompt = `You are a real estate marketing copywriter. ` +
	`Respond with a single JSON object with exactly these fields: ` +
	`"description" (a long-form listing description, 2-4 paragraphs), ` +
	`"summary" (one punchy sentence for flyers), ` +
	`"captions" (an array of 5 short social media captions with no hashtags).`

// Generator produces listing copy through the OpenAI chat completion API.
type Generator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Generator from configuration.
func New(cfg config.OpenAIConfig, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:  openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "copygen"),
	}
}

// Generate requests structured copy for the address. Unparseable model output
// degrades into the long-form description field; only a failed API call is an
// error.
func (g *Generator) Generate(ctx context.Context, address, details string) (model.ListingCopy, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf("Write marketing copy for the property at %q.", address)
	if details != "" {
		prompt += fmt.Sprintf(" Additional details from the seller: %s", details)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return model.ListingCopy{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ListingCopy{}, errors.New("chat completion returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	lc := model.DecodeListingCopy(raw)
	if lc.Summary == "" && len(lc.Captions) == 0 {
		g.logger.WarnContext(ctx, "model output did not parse as JSON, degraded to description only",
			"model", g.model, "raw_len", len(raw))
	}
	return lc, nil
}
