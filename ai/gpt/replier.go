package gpt

import (
	"WaRelay/entity"
	"WaRelay/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"github.com/sashabaranov/go-openai"
	"log/slog"
	"strings"
)

const defaultModel = openai.GPT4oMini

var ErrNoChoices = errors.New("no completion choices returned")

// Replier answers WhatsApp messages with an OpenAI chat completion.
type Replier struct {
	client *openai.Client
	model  string
	prompt string
	log    *slog.Logger
}

// NewReplier creates a replier; baseURL overrides the OpenAI endpoint when set.
func NewReplier(apiKey, baseURL, model, prompt string, logger *slog.Logger) *Replier {
	conf := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		conf.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model == "" {
		model = defaultModel
	}
	return &Replier{
		client: openai.NewClientWithConfig(conf),
		model:  model,
		prompt: prompt,
		log:    logger.With(sl.Module("gpt.replier")),
	}
}

func (r *Replier) Reply(ctx context.Context, query string, rc entity.ReplyContext) (entity.AppReply, error) {
	var messages []openai.ChatCompletionMessage
	if r.prompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.prompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: query,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
		User:     rc.UserID,
	})
	if err != nil {
		return entity.AppReply{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return entity.AppReply{}, ErrNoChoices
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)

	r.log.With(
		slog.String("user", rc.UserID),
		slog.String("model", r.model),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
	).Debug("chat response")

	return entity.AppReply{Text: text}, nil
}
