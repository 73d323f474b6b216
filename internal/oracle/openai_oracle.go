package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompatOracle is the fallback backend: any OpenAI-compatible
// chat-completions endpoint reached through [ai].base_url, used when
// the primary genkit backend exhausts its retries.
type OpenAICompatOracle struct {
	client openai.Client
	model  string
}

// NewOpenAICompatOracle builds a client against baseURL using one of
// apiKeys, chosen per construction like GenkitOracle.
func NewOpenAICompatOracle(apiKeys []string, model, baseURL string) (*OpenAICompatOracle, error) {
	key, err := pickAPIKey(apiKeys)
	if err != nil {
		return nil, err
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithRequestTimeout(2 * time.Minute),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompatOracle{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (o *OpenAICompatOracle) Ask(ctx context.Context, systemPrompt, userPrompt string, schema OutputSchema, retries int) (any, error) {
	result, err := runWithRetry(ctx, retries, func(ctx context.Context) (any, error) {
		instructions := systemPrompt + "\n\n" + jsonInstructionsFor(schema)

		completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: o.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(instructions),
				openai.UserMessage(userPrompt),
			},
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
			},
		})
		if err != nil {
			return nil, classifyOpenAIErr(err)
		}
		if len(completion.Choices) == 0 {
			return nil, NewSchemaViolationError(errors.New("openai-compatible backend returned no choices"))
		}

		return decodeSchema(completion.Choices[0].Message.Content, schema)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func jsonInstructionsFor(schema OutputSchema) string {
	switch schema {
	case SchemaBool:
		return `Respond with strict JSON of the form {"value": true} or {"value": false}. Output nothing else.`
	case SchemaStringList:
		return `Respond with strict JSON of the form {"values": ["...", "..."]}. Output nothing else.`
	case SchemaIoCList:
		return `Respond with strict JSON of the form {"values": [{"value": "...", "type": "...", "comment": "..."}]}. Output nothing else.`
	default:
		return ""
	}
}

func decodeSchema(raw string, schema OutputSchema) (any, error) {
	switch schema {
	case SchemaBool:
		var a boolAnswer
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, NewSchemaViolationError(fmt.Errorf("decoding bool answer: %w", err))
		}
		return a.Value, nil
	case SchemaStringList:
		var a stringListAnswer
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, NewSchemaViolationError(fmt.Errorf("decoding string list answer: %w", err))
		}
		return a.Values, nil
	case SchemaIoCList:
		var a iocListAnswer
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, NewSchemaViolationError(fmt.Errorf("decoding ioc list answer: %w", err))
		}
		return a.Values, nil
	default:
		return nil, fmt.Errorf("oracle: unknown output schema %v", schema)
	}
}

// classifyOpenAIErr maps an openai-go error to the shared retry
// policy's HTTP-status buckets.
func classifyOpenAIErr(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError:
			return NewHTTPStatusError(apiErr.StatusCode, err)
		default:
			return err
		}
	}
	return err
}
