package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/marketintel/config"
	"github.com/mohammad-safakhou/marketintel/provider/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGenerator struct{ calls int }

func (c *countingGenerator) Generate(context.Context, Request) (string, error) {
	c.calls++
	return "ok", nil
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	g, err := NewProvider(ctx, config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "tinyllama"})
	require.NoError(t, err)
	assert.IsType(t, &ollama.Client{}, g)

	g, err = NewProvider(ctx, config.LLMConfig{Provider: "ollama", BaseURL: "http://x", Model: "m", RPM: 60})
	require.NoError(t, err)
	assert.IsType(t, &Limited{}, g)

	_, err = NewProvider(ctx, config.LLMConfig{Provider: "none"})
	assert.True(t, errors.Is(err, ErrNoBackend))

	_, err = NewProvider(ctx, config.LLMConfig{Provider: "gemini"})
	assert.Error(t, err)
}

func TestLimitedHonoursContext(t *testing.T) {
	inner := &countingGenerator{}
	l := NewLimited(inner, 1, 1)

	_, err := l.Generate(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Generate(ctx, Request{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
