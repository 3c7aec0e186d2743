// Package llm talks to text-generation providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoAPIKey = errors.New("llm: no api key configured")

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Request is one system+user exchange.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Config struct {
	Provider string
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewClient builds the client for cfg.Provider. It returns ErrNoAPIKey
// when no credential is configured.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
