package enhance

import (
	"context"
	"fmt"

	"github.com/snarg/scribe/internal/config"
)

// CompletionRequest is a single-turn prompt sent to a completion API.
type CompletionRequest struct {
	Model     string
	MaxTokens int64
	Prompt    string
}

// Provider is a remote completion API.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Configured reports whether a credential is present.
	Configured() bool
	// CredentialVar names the setting that holds the credential.
	CredentialVar() string
	Name() string
}

// Provider names accepted by NewProvider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg config.EnhanceConfig) (Provider, error) {
	switch cfg.Provider {
	case ProviderAnthropic, "":
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicURL), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIURL), nil
	default:
		return nil, fmt.Errorf("enhance: unknown provider %q (supported: %s, %s)", cfg.Provider, ProviderAnthropic, ProviderOpenAI)
	}
}
