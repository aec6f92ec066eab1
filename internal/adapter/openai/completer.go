// Package openai adapts the OpenAI chat completions API to the assistant's
// Completer interface.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/couchcryptid/crop-risk-service/internal/chat"
)

// ErrEmptyResponse is returned when the API answers without any content.
var ErrEmptyResponse = errors.New("received empty response from OpenAI")

// Completer sends conversations to a chat model.
type Completer struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewCompleter creates a Completer for the given model. Extra options are
// passed to the underlying client, e.g. option.WithBaseURL in tests.
func NewCompleter(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *Completer {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Completer{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// Complete returns the model's reply to the conversation.
func (c *Completer) Complete(ctx context.Context, system string, history []chat.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, m := range history {
		switch m.Role {
		case chat.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("call OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("chat completion",
		"model", c.model,
		"messages", len(messages),
		"duration", time.Since(start),
	)
	return resp.Choices[0].Message.Content, nil
}
