package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"brandpilot/internal/models"
)

const strategySystemPrompt = "You are a senior brand strategist and copywriter. " +
	"Write persuasive, on-brand marketing copy. Respect the brand context when one is given " +
	"and keep the voice consistent across the reply."

// Strategy generates copywriting for the prompt. contextSummary, when
// non-empty, is threaded in as a prefix; attachments are passed to the model
// as inline images.
func (s *Service) Strategy(ctx context.Context, prompt, contextSummary string, attachments []models.MediaAttachment) (string, error) {
	if contextSummary != "" {
		prompt = contextSummary + "\n\n" + prompt
	}

	userMsg := &schema.Message{Role: schema.User, Content: prompt}
	if len(attachments) > 0 {
		parts := []schema.ChatMessagePart{{Type: schema.ChatMessagePartTypeText, Text: prompt}}
		for _, att := range attachments {
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      "data:" + att.MimeType + ";base64," + att.Data,
					MIMEType: att.MimeType,
				},
			})
		}
		userMsg = &schema.Message{Role: schema.User, MultiContent: parts}
	}
	messages := []*schema.Message{
		schema.SystemMessage(strategySystemPrompt),
		userMsg,
	}

	var (
		out *schema.Message
		err error
	)
	if s.agent != nil {
		out, err = s.agent.Generate(ctx, messages)
	} else {
		out, err = s.chatModel.Generate(ctx, messages)
	}
	if err != nil {
		return "", fmt.Errorf("strategy generation: %w", err)
	}
	return out.Content, nil
}
