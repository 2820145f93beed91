// Package openai implements answer generation through an OpenAI-compatible
// chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
)

const systemPrompt = "You are Policy Radar, an assistant tracking EU public " +
	"affairs. Answer using only the provided policy documents. Cite document " +
	"titles when you rely on them and say so when the documents do not cover " +
	"the question."

// Completer generates answers via an OpenAI-compatible chat API.
type Completer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete implements rag.Completer.
func (c *Completer) Complete(ctx context.Context, question string, docs []document.Document) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(question, docs)},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrRAGProviderError)
	}

	c.logger.Debug("completion finished",
		zap.String("model", c.model),
		zap.Int("documents", len(docs)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// buildPrompt assembles the question with its supporting documents.
func buildPrompt(question string, docs []document.Document) string {
	var b strings.Builder
	b.WriteString("Documents:\n")
	if len(docs) == 0 {
		b.WriteString("(none matched the question)\n")
	}
	for i, d := range docs {
		fmt.Fprintf(&b, "\n[%d] %s (%s, %s, published %s)\n%s\n",
			i+1, d.Title, d.Source, d.DocType, d.Published.Format("2006-01-02"), d.Summary)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrRAGProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrRAGProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}
