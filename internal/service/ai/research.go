package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"brandpilot/internal/cache"
	"brandpilot/internal/models"
)

// ResearchResult is a grounded answer with its citations, in the order the
// model reported them.
type ResearchResult struct {
	Text    string          `json:"text"`
	Sources []models.Source `json:"sources"`
}

// Research answers the query with Google Search grounding. Results are cached
// by normalized query when a cache client is configured; cache outages only
// log.
func (s *Service) Research(ctx context.Context, query string) (*ResearchResult, error) {
	key := researchCacheKey(query)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			var cached ResearchResult
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("research cache get failed: %v", err)
		}
	}

	contents := []*genai.Content{genai.NewContentFromText(query, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.researchModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("research generation: %w", err)
	}

	result := &ResearchResult{
		Text:    resp.Text(),
		Sources: extractSources(resp),
	}
	if s.cache != nil && s.researchCacheTTL > 0 {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.researchCacheTTL); err != nil {
				log.Printf("research cache set failed: %v", err)
			}
		}
	}
	return result, nil
}

func extractSources(resp *genai.GenerateContentResponse) []models.Source {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var sources []models.Source
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, models.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}

func researchCacheKey(query string) string {
	return "research:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}
