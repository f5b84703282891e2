package steps

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	offersrepo "github.com/yungbote/lvflow-backend/internal/data/repos/offers"
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/archive"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/extraction"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/pdftext"
	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/envutil"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

// TextExtractor turns raw document bytes into page texts (*pdftext.Extractor).
type TextExtractor interface {
	Extract(data []byte) (*pdftext.Document, error)
}

type IngestPDFDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Repos   offersrepo.Repos
	Text    TextExtractor
	Extract Extractor
	Archive archive.Archiver
	Metrics *observability.Metrics
}

type IngestPDFInput struct {
	JobID     string
	OfferName string
	Data      []byte
}

type IngestPDFOptions struct {
	// Concurrency caps groups in flight. If <= 0, INGEST_GROUP_CONCURRENCY or 4.
	Concurrency int
	// FullTextMaxChars truncates the text sent to group extraction. 0 means unlimited.
	FullTextMaxChars int

	// Report is an optional progress callback (the job tracker's fire-and-forget sender).
	Report func(stage string, pct int, message string)
}

type IngestPDFOutput struct {
	OfferID         uint               `json:"offer_id"`
	SourceFilename  string             `json:"source_filename"`
	GroupsExtracted int                `json:"groups_extracted"`
	GroupsFailed    int                `json:"groups_failed"`
	Counts          types.IngestCounts `json:"counts"`
}

const (
	pctStart       = 2
	pctTextDone    = 10
	pctGroupsDone  = 20
	pctOfferReady  = 25
	pctGroupsSpan  = 70
	pctAggregating = 97
)

// IngestPDF runs one document through archive, text extraction, group extraction and
// the per-group fan-out. Errors before the offer checkpoint are fatal; group errors are not.
func IngestPDF(ctx context.Context, deps IngestPDFDeps, in IngestPDFInput, opts ...IngestPDFOptions) (IngestPDFOutput, error) {
	out := IngestPDFOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Text == nil || deps.Extract == nil || deps.Archive == nil || deps.Repos.Offers == nil {
		return out, fmt.Errorf("ingest_pdf: missing deps")
	}
	offerName := strings.TrimSpace(in.OfferName)
	if offerName == "" {
		return out, fmt.Errorf("ingest_pdf: missing offer_name")
	}
	if len(in.Data) == 0 {
		return out, fmt.Errorf("ingest_pdf: empty document")
	}

	var opt IngestPDFOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	concurrency := opt.Concurrency
	if concurrency <= 0 {
		concurrency = envutil.Int("INGEST_GROUP_CONCURRENCY", 4)
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	report := opt.Report
	if report == nil {
		report = func(string, int, string) {}
	}
	log := deps.Log.With("step", "ingest_pdf", "job_id", in.JobID, "offer_name", offerName)

	ctx, span := observability.StartSpan(ctx, "ingest.pdf",
		attribute.String("job_id", in.JobID),
		attribute.Int("document.bytes", len(in.Data)),
	)
	defer span.End()

	stage := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		deps.Metrics.ObserveIngestStage(name, observability.StatusLabel(err), time.Since(start))
		if err != nil {
			span.RecordError(err)
		}
		return err
	}

	// start
	report("start", pctStart, "Archiving document")
	filename := archive.SanitizeFilename(offerName)
	if err := stage("archive", func() error {
		ref, err := deps.Archive.Put(ctx, filename, in.Data)
		if err != nil {
			return fmt.Errorf("archive document: %w", err)
		}
		out.SourceFilename = ref
		return nil
	}); err != nil {
		return out, err
	}

	// extract_text
	report("extract_text", pctStart+1, "Extracting text")
	var doc *pdftext.Document
	if err := stage("extract_text", func() error {
		d, err := deps.Text.Extract(in.Data)
		if err != nil {
			return fmt.Errorf("extract text: %w", err)
		}
		doc = d
		return nil
	}); err != nil {
		return out, err
	}
	log.Info("Text extracted", "pages", len(doc.Pages), "page_offset", doc.PageOffset)
	report("extract_text", pctTextDone, fmt.Sprintf("Extracted %d pages", len(doc.Pages)))

	// extract_groups
	fullText := doc.FullText()
	if opt.FullTextMaxChars > 0 && len([]rune(fullText)) > opt.FullTextMaxChars {
		fullText = string([]rune(fullText)[:opt.FullTextMaxChars])
	}
	var extracted []extraction.Group
	if err := stage("extract_groups", func() error {
		gs, err := deps.Extract.ExtractGroups(ctx, fullText)
		if err != nil {
			return fmt.Errorf("extract groups: %w", err)
		}
		extracted = gs
		return nil
	}); err != nil {
		return out, err
	}
	out.GroupsExtracted = len(extracted)
	report("extract_groups", pctGroupsDone, fmt.Sprintf("Found %d groups", len(extracted)))

	// offer_ready
	var offer *types.Offer
	if err := stage("offer_ready", func() error {
		return deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			o, _, err := deps.Repos.Offers.GetOrCreateByName(dbc, offerName)
			if err != nil {
				return fmt.Errorf("get or create offer: %w", err)
			}
			if err := deps.Repos.Offers.SetSourceFilename(dbc, o.ID, out.SourceFilename); err != nil {
				return fmt.Errorf("set source filename: %w", err)
			}
			offer = o
			return nil
		})
	}); err != nil {
		return out, err
	}
	out.OfferID = offer.ID
	log = log.With("offer_id", offer.ID)
	report("offer_ready", pctOfferReady, "Offer ready")

	// groups_in_flight
	groupDeps := ProcessGroupDeps{
		DB:      deps.DB,
		Log:     deps.Log,
		Repos:   deps.Repos,
		Extract: deps.Extract,
		Metrics: deps.Metrics,
	}
	var (
		mu    sync.Mutex
		total types.IngestCounts
		done  int
	)
	groupsStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, eg := range extracted {
		g.Go(func() error {
			counts, err := runGroup(gctx, groupDeps, ProcessGroupInput{
				OfferID:    offer.ID,
				Group:      eg,
				Pages:      doc.Pages,
				PageOffset: doc.PageOffset,
			})

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				out.GroupsFailed++
				deps.Metrics.IncGroup("failed")
				log.Warn("Group failed",
					"group_nr", deref(eg.GroupNo),
					"group_title", eg.Title,
					"error", err,
				)
			} else {
				total.Add(counts)
				deps.Metrics.IncGroup("ok")
			}
			pct := pctOfferReady + pctGroupsSpan*done/len(extracted)
			report("groups", pct, fmt.Sprintf("Processed %d/%d groups", done, len(extracted)))
			// Group errors are values; returning nil keeps siblings running.
			return nil
		})
	}
	_ = g.Wait()
	deps.Metrics.ObserveIngestStage("groups", "ok", time.Since(groupsStart))

	// aggregating
	report("aggregating", pctAggregating, "Aggregating results")
	total.Offers = 1
	out.Counts = total
	log.Info("Ingestion finished",
		"groups_extracted", out.GroupsExtracted,
		"groups_failed", out.GroupsFailed,
		"variants", total.Variants,
		"components", total.Components,
		"variant_components", total.VariantComponents,
	)
	return out, nil
}

// runGroup converts a panic inside one group into an error for that group.
func runGroup(ctx context.Context, deps ProcessGroupDeps, in ProcessGroupInput) (counts types.IngestCounts, err error) {
	defer func() {
		if r := recover(); r != nil {
			counts = types.IngestCounts{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ProcessGroup(ctx, deps, in)
}
