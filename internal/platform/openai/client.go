package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/envutil"
	"github.com/yungbote/lvflow-backend/internal/platform/httpx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature *float64
	// JSONMode asks the Responses API for a JSON object instead of free text.
	JSONMode bool
}

func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:     envutil.String("OPENAI_API_KEY", ""),
		BaseURL:    envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:    time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 180)) * time.Second,
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 0),
		JSONMode:   envutil.Bool("OPENAI_JSON_MODE", true),
	}
	switch raw := strings.ToLower(envutil.String("OPENAI_TEMPERATURE", "0")); raw {
	case "off", "none", "false":
	default:
		t := envutil.Float("OPENAI_TEMPERATURE", 0)
		cfg.Temperature = &t
	}
	return cfg
}

type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	maxRetries  int
	temperature *float64
	jsonMode    bool
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
		temperature: cfg.Temperature,
		jsonMode:    cfg.JSONMode,
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func isUnsupportedTemperature(err error) bool {
	var he *openAIHTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(he.Body)
	return strings.Contains(msg, "temperature") &&
		(strings.Contains(msg, "unsupported") || strings.Contains(msg, "not supported") || strings.Contains(msg, "only the default"))
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != "" {
				out.WriteString(c.Text)
			}
		}
	}
	return out.String()
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := responsesRequest{
		Model:       c.model,
		Input:       []inputMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature: c.temperature,
	}
	if c.jsonMode {
		req.Text = &struct {
			Format map[string]any `json:"format,omitempty"`
		}{Format: map[string]any{"type": "json_object"}}
	}

	var resp responsesResponse
	err := c.do(ctx, "/v1/responses", &req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperature(err) {
		c.log.Debug("model rejected temperature, retrying without it", "model", c.model)
		req.Temperature = nil
		err = c.do(ctx, "/v1/responses", &req, &resp)
	}
	if err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, path string, body any, out *responsesResponse) error {
	backoff := 1 * time.Second
	start := time.Now()

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			observability.Current().ObserveLLMRequest("openai", c.model, "ok", time.Since(start), out.Usage.InputTokens, out.Usage.OutputTokens)
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.maxRetries {
			observability.Current().ObserveLLMRequest("openai", c.model, observability.StatusLabel(err), time.Since(start), 0, 0)
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
}
