// Package ai wraps the configured chat model behind a single-prompt Generate call.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipechat/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

const claudeMaxTokens = 1024

type Service struct {
	chatModel model.BaseChatModel
	provider  string
	modelName string
	logger    *zap.Logger
}

// NewService builds the chat model named by cfg.LLM. Ollama is reached through its
// OpenAI-compatible API.
func NewService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := cfg.LLM.Provider
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}
	modelName := cfg.LLM.Model
	if modelName == "" {
		modelName = provCfg.Model
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch provider {
	case "openai", "ollama":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   modelName,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  provCfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: claudeMaxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	logger.Info("chat model ready", zap.String("provider", provider), zap.String("model", modelName))
	return &Service{chatModel: chatModel, provider: provider, modelName: modelName, logger: logger}, nil
}

// NewWithModel wraps an existing chat model.
func NewWithModel(chatModel model.BaseChatModel, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{chatModel: chatModel, logger: logger}
}

// Generate sends prompt as a single user turn and returns the reply text.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	if s == nil || s.chatModel == nil {
		return "", errors.New("chat model not initialized")
	}
	msg, err := s.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyReply
	}
	return msg.Content, nil
}

// Name identifies the provider and model for logs and health output.
func (s *Service) Name() string {
	if s.provider == "" {
		return "custom"
	}
	return s.provider + "/" + s.modelName
}
