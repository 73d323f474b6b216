package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// GenkitOracle is the primary backend: a genkit app wired to the
// googlegenai plugin, matching the teacher's own cmd/main.go
// initialization shape.
type GenkitOracle struct {
	app       *genkit.Genkit
	modelName string
}

// NewGenkitOracle initializes a genkit app against one of apiKeys
// (chosen once, here at construction; every Ask on the returned oracle
// uses that same key, keys are not rotated between calls) and binds it
// to modelName, e.g. "googleai/gemini-2.5-flash".
func NewGenkitOracle(ctx context.Context, apiKeys []string, modelName string) (*GenkitOracle, error) {
	key, err := pickAPIKey(apiKeys)
	if err != nil {
		return nil, err
	}
	app := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: key}))
	return &GenkitOracle{app: app, modelName: modelName}, nil
}

func (o *GenkitOracle) Ask(ctx context.Context, systemPrompt, userPrompt string, schema OutputSchema, retries int) (any, error) {
	result, err := runWithRetry(ctx, retries, func(ctx context.Context) (any, error) {
		switch schema {
		case SchemaBool:
			out, _, err := genkit.GenerateData[boolAnswer](ctx, o.app,
				ai.WithModelName(o.modelName),
				ai.WithSystem(systemPrompt),
				ai.WithPrompt(userPrompt),
			)
			if err != nil {
				return nil, classifyGenkitErr(err)
			}
			return out.Value, nil
		case SchemaStringList:
			out, _, err := genkit.GenerateData[stringListAnswer](ctx, o.app,
				ai.WithModelName(o.modelName),
				ai.WithSystem(systemPrompt),
				ai.WithPrompt(userPrompt),
			)
			if err != nil {
				return nil, classifyGenkitErr(err)
			}
			return out.Values, nil
		case SchemaIoCList:
			out, _, err := genkit.GenerateData[iocListAnswer](ctx, o.app,
				ai.WithModelName(o.modelName),
				ai.WithSystem(systemPrompt),
				ai.WithPrompt(userPrompt),
			)
			if err != nil {
				return nil, classifyGenkitErr(err)
			}
			return out.Values, nil
		default:
			return nil, fmt.Errorf("oracle: unknown output schema %v", schema)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// classifyGenkitErr tags a genkit.GenerateData failure either as an
// HTTP status (the googlegenai plugin surfaces rate-limit/server
// errors as plain errors with the status code embedded in the
// message, not as a typed error) or, failing that, as a schema
// violation — genkit's own malformed-JSON condition looks the same
// way, so anything without a recognizable status is treated as one.
func classifyGenkitErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"):
		return NewHTTPStatusError(http.StatusTooManyRequests, err)
	case strings.Contains(msg, "500"):
		return NewHTTPStatusError(http.StatusInternalServerError, err)
	}
	return NewSchemaViolationError(err)
}
