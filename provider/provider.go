package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/marketintel/config"
	"github.com/mohammad-safakhou/marketintel/provider/ollama"
	openai_provider "github.com/mohammad-safakhou/marketintel/provider/openai"
	"github.com/mohammad-safakhou/marketintel/provider/types"
)

// Client names a generation backend
type Client string

const (
	Ollama Client = "ollama"
	OpenAI Client = "openai"
	None   Client = "none"
)

// ErrNoBackend is returned by NewProvider when generation is switched off.
var ErrNoBackend = errors.New("no generation backend configured")

type (
	Request   = types.Request
	Generator = types.Generator
)

// NewProvider builds the configured generator, wrapped in a rate limiter when llm.rpm is set.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	var g Generator
	switch Client(cfg.Provider) {
	case Ollama:
		g = ollama.NewClient(cfg.BaseURL, cfg.Model, cfg.Timeout)
	case OpenAI:
		c, err := openai_provider.NewClient(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		g = c
	case None, "":
		return nil, ErrNoBackend
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
	if cfg.RPM > 0 {
		g = NewLimited(g, cfg.RPM, cfg.Burst)
	}
	return g, nil
}
