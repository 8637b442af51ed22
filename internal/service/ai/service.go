package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brandpilot/internal/cache"
	"brandpilot/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"google.golang.org/genai"
)

// Service exposes the four generation capabilities. The copywriting model is
// provider-switchable; research, image and video always run against the
// Gemini API.
type Service struct {
	client    *genai.Client
	chatModel model.ToolCallingChatModel
	agent     *react.Agent
	video     videoPoller
	cache     *cache.Client

	researchModel    string
	imageModel       string
	researchCacheTTL time.Duration
	videoPollEvery   time.Duration
	videoTimeout     time.Duration
}

// NewService builds the capability layer from config. cacheClient may be nil,
// which disables research caching.
func NewService(ctx context.Context, cfg *config.Config, cacheClient *cache.Client) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	geminiCfg, ok := cfg.Providers["gemini"]
	if !ok || geminiCfg.APIKey == "" {
		return nil, errors.New("providers.gemini api_key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: geminiCfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	provider := cfg.AI.Provider
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var chatModel model.ToolCallingChatModel
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey})
	case "gemini":
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", provider, err)
	}

	var reactAgent *react.Agent
	if tools := InitToolsChain(); len(tools) > 0 {
		reactAgent, err = react.NewAgent(ctx, &react.AgentConfig{
			ToolCallingModel: chatModel,
			ToolsConfig: compose.ToolsNodeConfig{
				Tools: tools,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("init react agent: %w", err)
		}
	}

	return &Service{
		client:           client,
		chatModel:        chatModel,
		agent:            reactAgent,
		video:            &genaiVideoPoller{client: client, model: cfg.AI.VideoModel},
		cache:            cacheClient,
		researchModel:    cfg.AI.ResearchModel,
		imageModel:       cfg.AI.ImageModel,
		researchCacheTTL: time.Duration(cfg.AI.ResearchCacheMinutes) * time.Minute,
		videoPollEvery:   time.Duration(cfg.AI.VideoPollSeconds) * time.Second,
		videoTimeout:     time.Duration(cfg.AI.VideoTimeoutMinutes) * time.Minute,
	}, nil
}
