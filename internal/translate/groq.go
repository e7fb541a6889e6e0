// Package translate adapts a hosted LLM into core.Translator.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyTranslation = errors.New("empty translation")

const promptTemplate = "Translate this text to %s. Only return the translation, no explanation:\n\n%s"

// Groq talks to any OpenAI-compatible chat completion endpoint; the
// defaults point at Groq.
type Groq struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewGroq(cfg config.Translator) *Groq {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Groq{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// New returns nil when no API key is configured; the relay then passes
// every message through untranslated.
func New(cfg config.Translator) core.Translator {
	if cfg.APIKey == "" {
		log.Warn().Str("module", "translate").Msg("no translator api key, messages will not be translated")
		return nil
	}
	log.Info().Str("module", "translate").Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("translator ready")
	return NewGroq(cfg)
}

func (g *Groq) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, LanguageName(target), text)},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyTranslation
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
