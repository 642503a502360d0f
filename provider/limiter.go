package provider

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles calls to the wrapped generator to rpm requests per minute.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewLimited wraps g. burst below 1 is treated as 1.
func NewLimited(g Generator, rpm, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    g,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

func (l *Limited) Generate(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return l.next.Generate(ctx, req)
}
