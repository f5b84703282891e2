package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/envutil"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("ANTHROPIC_API_KEY", ""),
		BaseURL:     envutil.String("ANTHROPIC_BASE_URL", ""),
		Model:       envutil.String("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		MaxTokens:   envutil.Int("ANTHROPIC_MAX_TOKENS", 8192),
		Temperature: envutil.Float("ANTHROPIC_TEMPERATURE", 0),
	}
}

type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int
	temp      float64
	log       *logger.Logger
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		temp:      cfg.Temperature,
		log:       log.With("service", "AnthropicClient"),
	}, nil
}

func (c *Client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(c.temp),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		observability.Current().ObserveLLMRequest("anthropic", c.model, observability.StatusLabel(err), time.Since(start), 0, 0)
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &statusError{status: apiErr.StatusCode, err: err}
		}
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	observability.Current().ObserveLLMRequest("anthropic", c.model, "ok", time.Since(start), int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("no text content in anthropic response")
	}
	return out.String(), nil
}

// statusError exposes the API status so retry policies can classify it.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string       { return fmt.Sprintf("anthropic http %d: %v", e.status, e.err) }
func (e *statusError) Unwrap() error       { return e.err }
func (e *statusError) HTTPStatusCode() int { return e.status }
