package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"go.opentelemetry.io/otel/attribute"
)

// Completer is the external structured-extraction service: prompt in, text out.
type Completer interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type Client struct {
	completer Completer
	schemas   *schemas
	log       *logger.Logger
}

func NewClient(completer Completer, log *logger.Logger) (*Client, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer required")
	}
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Client{completer: completer, schemas: s, log: log.With("component", "ExtractionClient")}, nil
}

func (c *Client) ExtractGroups(ctx context.Context, fullText string) ([]Group, error) {
	var resp groupsResponse
	if err := c.call(ctx, "extract_groups", groupsPrompt(fullText), c.schemas.groups, &resp); err != nil {
		return nil, err
	}
	out := make([]Group, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		g.Title = strings.TrimSpace(g.Title)
		out = append(out, g)
	}
	return out, nil
}

func (c *Client) ExtractVariants(ctx context.Context, groupNo, groupTitle, groupText string) ([]Variant, error) {
	var resp variantsResponse
	if err := c.call(ctx, "extract_variants", variantsPrompt(groupNo, groupTitle, groupText), c.schemas.variants, &resp); err != nil {
		return nil, err
	}
	out := make([]Variant, 0, len(resp.Variants))
	for _, v := range resp.Variants {
		v.Title = strings.TrimSpace(v.Title)
		v.Text = strings.TrimSpace(v.Text)
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) ExtractComponents(ctx context.Context, groupNo, groupTitle string, variants []VariantLine) ([]Component, error) {
	var resp componentsResponse
	if err := c.call(ctx, "extract_components", componentsPrompt(groupNo, groupTitle, variants), c.schemas.components, &resp); err != nil {
		return nil, err
	}
	return resp.Components, nil
}

func (c *Client) call(ctx context.Context, task, prompt string, schema validator, out any) error {
	ctx, span := observability.StartSpan(ctx, "extraction."+task, attribute.Int("prompt.chars", len(prompt)))
	defer span.End()

	start := time.Now()
	raw, err := c.completer.GenerateText(ctx, systemPrompt, prompt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s: %w", task, err)
	}
	if err := decodeInto(raw, schema, out); err != nil {
		span.RecordError(err)
		c.log.Warn("structured response rejected", "task", task, "error", err)
		return fmt.Errorf("%s: %w", task, err)
	}
	c.log.Debug("structured response parsed", "task", task, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
