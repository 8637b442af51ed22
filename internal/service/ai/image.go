package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	"brandpilot/internal/models"
)

// Image generates a visual for the prompt, optionally steered by a reference
// image. A (nil, "", nil) return means the model produced no image; that is a
// valid outcome, not an error.
func (s *Service) Image(ctx context.Context, prompt string, reference *models.MediaAttachment) ([]byte, string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if reference != nil {
		data, err := base64.StdEncoding.DecodeString(reference.Data)
		if err != nil {
			return nil, "", fmt.Errorf("decode reference image: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, reference.MimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.imageModel, contents, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("image generation: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return part.InlineData.Data, mime, nil
			}
		}
	}
	return nil, "", nil
}
