package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/lvflow-backend/internal/modules/offers/extraction"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/steps"
	"github.com/yungbote/lvflow-backend/internal/platform/anthropic"
	"github.com/yungbote/lvflow-backend/internal/platform/gemini"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"github.com/yungbote/lvflow-backend/internal/platform/openai"
	"github.com/yungbote/lvflow-backend/internal/services"
)

func newCompleter(ctx context.Context, log *logger.Logger, cfg LLMConfig) (extraction.Completer, error) {
	model := strings.TrimSpace(cfg.Model)
	switch cfg.Provider {
	case "", "openai":
		c := openai.ConfigFromEnv()
		if model != "" {
			c.Model = model
		}
		return openai.NewClient(log, c)
	case "anthropic":
		c := anthropic.ConfigFromEnv()
		if model != "" {
			c.Model = model
		}
		return anthropic.NewClient(log, c)
	case "gemini":
		c := gemini.ConfigFromEnv()
		if model != "" {
			c.Model = model
		}
		return gemini.NewClient(ctx, log, c)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}
}

// extractorFactory builds the extraction client on first use and caches it.
// A missing API key fails each run that needs it instead of failing boot.
func extractorFactory(log *logger.Logger, cfg LLMConfig) services.ExtractorFactory {
	var (
		mu     sync.Mutex
		cached steps.Extractor
	)
	return func(ctx context.Context) (steps.Extractor, error) {
		mu.Lock()
		defer mu.Unlock()
		if cached != nil {
			return cached, nil
		}
		completer, err := newCompleter(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		client, err := extraction.NewClient(extraction.WithRetry(completer, cfg.MaxRetries, log), log)
		if err != nil {
			return nil, err
		}
		log.Info("Extraction client ready", "provider", cfg.Provider, "max_retries", cfg.MaxRetries)
		cached = client
		return cached, nil
	}
}
