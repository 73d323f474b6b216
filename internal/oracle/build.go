package oracle

import (
	"context"
	"fmt"

	"github.com/esoadamo/micro-cti-go/internal/config"
)

// Build constructs the Oracle described by cfg. "mistral" and
// "openai-compatible" are built the same way: a genkit primary, plus
// an openai-compatible fallback only when base_url is set (with an
// empty base_url the primary is returned alone). Neither backend in this pack
// speaks Mistral's API natively, so base_url is what actually
// distinguishes a Mistral La Plateforme deployment from a self-hosted
// OpenAI-compatible one (see DESIGN.md).
func Build(ctx context.Context, cfg config.AIConfig) (Oracle, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("oracle: ai.provider is required")
	}

	primary, err := NewGenkitOracle(ctx, []string(cfg.APIKey), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("oracle: building primary backend: %w", err)
	}

	if cfg.BaseURL == "" {
		return primary, nil
	}

	secondary, err := NewOpenAICompatOracle([]string(cfg.APIKey), cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("oracle: building fallback backend: %w", err)
	}

	return NewFallbackOracle(primary, secondary), nil
}
