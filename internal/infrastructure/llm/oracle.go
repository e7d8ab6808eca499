// Package llm implements the color disambiguation oracle on top of an
// OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/reconcile"
	"github.com/marketsync/backend/internal/infrastructure/config"
)

const systemPrompt = `You match a control color name against a list of proposed color names.
Pick the single proposed color closest in meaning to the control color and
rate your confidence on a scale from 0 (pure guess) to 10 (certain).
Color names may be in Russian or English.`

// colorVerdict is the structured output schema the model must follow.
type colorVerdict struct {
	ColorData []struct {
		ControlColor    string  `json:"control_color"`
		MostAppropriate string  `json:"most_appropriate"`
		Confidence      float64 `json:"confidence"`
	} `json:"color_data"`
}

// Oracle resolves ambiguous color candidates with a chat completion call.
// It implements reconcile.Oracle.
type Oracle struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOracle creates an oracle from configuration. An empty BaseURL uses the
// provider default endpoint.
func NewOracle(cfg config.OracleConfig, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Oracle{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger,
	}
}

// ResolveAmbiguous asks the model to pick the proposed color closest to the
// query and returns the verdict with its confidence on the 0..10 scale.
func (o *Oracle) ResolveAmbiguous(ctx context.Context, query string, candidates []string) (reconcile.OracleVerdict, error) {
	schema, err := jsonschema.GenerateSchemaForType(colorVerdict{})
	if err != nil {
		return reconcile.OracleVerdict{}, fmt.Errorf("llm: schema generation failed: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("control_color: %s, proposed_colors: %s", query, strings.Join(candidates, ", ")),
			},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "color_data",
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return reconcile.OracleVerdict{}, fmt.Errorf("llm: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return reconcile.OracleVerdict{}, fmt.Errorf("llm: completion returned no choices")
	}

	var verdict colorVerdict
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return reconcile.OracleVerdict{}, fmt.Errorf("llm: malformed verdict payload: %w", err)
	}
	if len(verdict.ColorData) == 0 {
		return reconcile.OracleVerdict{}, fmt.Errorf("llm: verdict payload carried no color data")
	}

	first := verdict.ColorData[0]
	o.logger.Debug("oracle verdict",
		zap.String("query", query),
		zap.String("best", first.MostAppropriate),
		zap.Float64("confidence", first.Confidence))

	return reconcile.OracleVerdict{
		BestValue:  first.MostAppropriate,
		Confidence: int(math.Round(first.Confidence)),
	}, nil
}

var _ reconcile.Oracle = (*Oracle)(nil)
