package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	offersrepo "github.com/yungbote/lvflow-backend/internal/data/repos/offers"
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/extraction"
	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

// Extractor is the structured-extraction surface the pipeline needs (*extraction.Client).
type Extractor interface {
	ExtractGroups(ctx context.Context, fullText string) ([]extraction.Group, error)
	ExtractVariants(ctx context.Context, groupNo, groupTitle, groupText string) ([]extraction.Variant, error)
	ExtractComponents(ctx context.Context, groupNo, groupTitle string, variants []extraction.VariantLine) ([]extraction.Component, error)
}

type ProcessGroupDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Repos   offersrepo.Repos
	Extract Extractor
	Metrics *observability.Metrics
}

type ProcessGroupInput struct {
	OfferID    uint
	Group      extraction.Group
	Pages      []string
	PageOffset int
}

// ProcessGroup runs one group through upsert, variant and component extraction.
// Every sub-step commits its own transaction, so a failure keeps what was already written.
func ProcessGroup(ctx context.Context, deps ProcessGroupDeps, in ProcessGroupInput) (types.IngestCounts, error) {
	var counts types.IngestCounts
	if deps.DB == nil || deps.Log == nil || deps.Extract == nil || deps.Repos.Groups == nil {
		return counts, fmt.Errorf("process_group: missing deps")
	}
	groupNo := deref(in.Group.GroupNo)

	ctx, span := observability.StartSpan(ctx, "ingest.group",
		attribute.String("group_nr", groupNo),
		attribute.String("group_title", in.Group.Title),
	)
	defer span.End()

	var group *types.ProdGroup
	err := deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		group, err = deps.Repos.Groups.Upsert(dbctx.Context{Ctx: ctx, Tx: tx}, offersrepo.GroupFields{
			OfferID:  in.OfferID,
			GroupNr:  in.Group.GroupNo,
			Title:    in.Group.Title,
			PageFrom: in.Group.PageFrom,
			PageTo:   in.Group.PageTo,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return counts, fmt.Errorf("upsert group: %w", err)
	}

	start, end := PageWindow(in.PageOffset, in.Group.PageFrom, in.Group.PageTo)
	groupText := strings.Join(SlicePages(in.Pages, start, end), "\n\n")

	stageStart := time.Now()
	variants, err := deps.Extract.ExtractVariants(ctx, groupNo, in.Group.Title, groupText)
	deps.Metrics.ObserveIngestStage("extract_variants", observability.StatusLabel(err), time.Since(stageStart))
	if err != nil {
		span.RecordError(err)
		return counts, fmt.Errorf("extract variants: %w", err)
	}

	byNr := map[string]uint{}
	lines := make([]extraction.VariantLine, 0, len(variants))
	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, v := range variants {
			row, err := deps.Repos.Variants.Upsert(dbc, offersrepo.VariantFields{
				GroupID:   group.ID,
				VarNr:     v.VariantNo,
				ShortText: v.Title,
				LongText:  optionalText(v.Text),
				PageFrom:  v.PageFrom,
				PageTo:    v.PageTo,
			})
			if err != nil {
				return fmt.Errorf("variant %q: %w", deref(v.VariantNo), err)
			}
			if row.VarNr != nil {
				byNr[*row.VarNr] = row.ID
				lines = append(lines, extraction.VariantLine{No: *row.VarNr, Title: v.Title, Text: v.Text})
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return counts, fmt.Errorf("upsert variants: %w", err)
	}
	counts.Groups = 1
	counts.Variants = len(variants)

	if len(byNr) == 0 {
		return counts, nil
	}

	stageStart = time.Now()
	components, err := deps.Extract.ExtractComponents(ctx, groupNo, in.Group.Title, lines)
	deps.Metrics.ObserveIngestStage("extract_components", observability.StatusLabel(err), time.Since(stageStart))
	if err != nil {
		span.RecordError(err)
		return types.IngestCounts{}, fmt.Errorf("extract components: %w", err)
	}

	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, c := range components {
			desc := strings.TrimSpace(c.Description)
			if desc == "" {
				continue
			}
			comp, err := deps.Repos.Components.GetOrCreate(dbc, desc)
			if err != nil {
				return fmt.Errorf("component %q: %w", desc, err)
			}
			counts.Components++
			for _, no := range c.VariantNos {
				variantID, ok := byNr[strings.TrimSpace(no)]
				if !ok {
					continue
				}
				if _, _, err := deps.Repos.Links.Upsert(dbc, variantID, comp.ID); err != nil {
					return fmt.Errorf("link %q -> %q: %w", no, desc, err)
				}
				counts.VariantComponents++
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return types.IngestCounts{}, fmt.Errorf("upsert components: %w", err)
	}
	return counts, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
