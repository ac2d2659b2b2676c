package enhance

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey string
	client anthropic.Client
}

// NewAnthropicProvider creates a provider. An empty apiKey yields a provider
// that reports itself unconfigured. SDK retries are disabled.
func NewAnthropicProvider(apiKey, baseURL string) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{
		apiKey: apiKey,
		client: anthropic.NewClient(opts...),
	}
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	if len(msg.Content) == 0 {
		return "", errors.New("response contained no content blocks")
	}
	return msg.Content[0].Text, nil
}

func (p *AnthropicProvider) Configured() bool { return p.apiKey != "" }

func (p *AnthropicProvider) CredentialVar() string { return "ANTHROPIC_API_KEY" }

func (p *AnthropicProvider) Name() string { return ProviderAnthropic }
