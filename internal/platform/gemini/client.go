package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/envutil"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("GEMINI_API_KEY", ""),
		Model:       envutil.String("GEMINI_MODEL", "gemini-2.5-flash"),
		Temperature: float32(envutil.Float("GEMINI_TEMPERATURE", 0)),
	}
}

type Client struct {
	client *genai.Client
	model  string
	temp   float32
	log    *logger.Logger
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{client: client, model: cfg.Model, temp: cfg.Temperature, log: log.With("service", "GeminiClient")}, nil
}

func (c *Client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temp),
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), config)
	if err != nil {
		observability.Current().ObserveLLMRequest("gemini", c.model, observability.StatusLabel(err), time.Since(start), 0, 0)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	in, out := 0, 0
	if resp.UsageMetadata != nil {
		in, out = int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
	}
	observability.Current().ObserveLLMRequest("gemini", c.model, "ok", time.Since(start), in, out)

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text in gemini response")
	}
	return text, nil
}
