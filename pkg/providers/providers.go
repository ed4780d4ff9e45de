// Package providers wraps the hosted LLM APIs behind a single completion call.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned when neither an option nor the environment supplies a key.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("empty completion")

type Completer interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
}

type ProviderParams struct {
	BaseURL string
	APIKey  string
}

type ProviderOption func(*ProviderParams)

func WithBaseURL(baseURL string) ProviderOption {
	return func(p *ProviderParams) {
		p.BaseURL = baseURL
	}
}

func WithAPIKey(apiKey string) ProviderOption {
	return func(p *ProviderParams) {
		p.APIKey = apiKey
	}
}

// ByName returns the completer for "openai" or "gemini".
func ByName(ctx context.Context, name string, opts ...ProviderOption) (Completer, error) {
	switch strings.ToLower(name) {
	case "openai":
		return OpenAI(ctx, opts...), nil
	case "gemini", "google":
		c, err := Gemini(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}
