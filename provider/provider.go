package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/aitelhq/supportbot/config"
	openai_provider "github.com/aitelhq/supportbot/provider/openai"
)

// Provider is the interface the chat pipeline uses for generative fallback.
// Implementations complete a single system+user exchange; callers bound the
// call with their own timeout context.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NoInformationReply is the fixed sentence returned when neither the corpus
// nor the fallback can answer. The bot never fabricates an answer.
const NoInformationReply = "I don't have information about that. Please contact our support team for assistance."

// BuildSystemPrompt grounds the fallback model in retrieved corpus chunks.
// Without context the model is still instructed to refuse rather than guess.
func BuildSystemPrompt(chunks []string) string {
	base := `You are an intelligent customer support assistant.
Use ONLY the Knowledge Base context when it is provided and relevant.
If the answer is not clearly present in the Knowledge Base context, respond exactly:
"` + NoInformationReply + `"
Do not guess or invent details. Keep responses concise and professional.`
	if len(chunks) == 0 {
		return base
	}
	return base + "\n\nKnowledge Base Context:\n" + strings.Join(chunks, "\n\n")
}

// NewProvider creates an LLM client from configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	if !cfg.Enabled {
		return nil, errors.New("llm fallback disabled")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm.api_key not set")
	}
	return openai_provider.NewClient(
		cfg.APIKey,
		cfg.BaseURL,
		cfg.CompletionModel,
		cfg.Temperature,
		cfg.MaxTokens,
		cfg.Timeout,
	), nil
}
