package types

import "context"

// Request is a single one-shot completion request.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Generator turns a prompt into raw model text. The text may be empty or
// surround the JSON the caller asked for with prose.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
