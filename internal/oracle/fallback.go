package oracle

import (
	"context"
	"errors"
	"log"
)

// FallbackOracle tries primary first; if primary exhausts its own
// retries, the whole call is retried against secondary. Both backends
// answer the same schema, so a caller sees a single Oracle no matter
// which one actually answered.
type FallbackOracle struct {
	primary   Oracle
	secondary Oracle
}

// NewFallbackOracle wires primary and secondary into one Oracle.
// secondary may be nil, in which case this degrades to primary alone.
func NewFallbackOracle(primary, secondary Oracle) *FallbackOracle {
	return &FallbackOracle{primary: primary, secondary: secondary}
}

func (f *FallbackOracle) Ask(ctx context.Context, systemPrompt, userPrompt string, schema OutputSchema, retries int) (any, error) {
	result, err := f.primary.Ask(ctx, systemPrompt, userPrompt, schema, retries)
	if err == nil {
		return result, nil
	}
	if f.secondary == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	log.Printf("[oracle] primary backend exhausted (%v), falling back", err)
	return f.secondary.Ask(ctx, systemPrompt, userPrompt, schema, retries)
}
