package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/yungbote/lvflow-backend/internal/data/db"
	offersrepo "github.com/yungbote/lvflow-backend/internal/data/repos/offers"
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/jobs/tracker"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/archive"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/steps"
	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/apierr"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ExtractorFactory builds the structured-extraction client for one run.
// It fails when the extraction service is not configured.
type ExtractorFactory func(ctx context.Context) (steps.Extractor, error)

// SnapshotReader reads job snapshots mirrored by another process.
type SnapshotReader interface {
	Get(ctx context.Context, id string) (tracker.State, bool, error)
}

type IngestService interface {
	// SubmitPDF registers a job and runs the pipeline in the background.
	SubmitPDF(ctx context.Context, offerName string, data []byte) (string, error)
	// RunPDF runs the pipeline synchronously under an existing job id.
	RunPDF(ctx context.Context, jobID string, offerName string, data []byte) (steps.IngestPDFOutput, error)
	GetJob(ctx context.Context, jobID string) (tracker.State, error)
	IngestJSON(ctx context.Context, offerName string, baseDir string) (types.IngestCounts, error)
	InitDB(ctx context.Context) error
	GetOfferTree(ctx context.Context, offerID uint) (*types.Offer, error)
	// Wait blocks until background runs have finished.
	Wait()
}

type IngestConfig struct {
	Concurrency      int
	FullTextMaxChars int
	JSONBaseDir      string
}

type IngestServiceDeps struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Repos      offersrepo.Repos
	Jobs       *tracker.Tracker
	Snapshots  SnapshotReader
	Text       steps.TextExtractor
	Extractors ExtractorFactory
	Archive    archive.Archiver
	Metrics    *observability.Metrics
}

type ingestService struct {
	deps IngestServiceDeps
	cfg  IngestConfig
	log  *logger.Logger
	wg   sync.WaitGroup
}

func NewIngestService(deps IngestServiceDeps, cfg IngestConfig) (IngestService, error) {
	if deps.DB == nil || deps.Log == nil || deps.Jobs == nil || deps.Text == nil || deps.Extractors == nil || deps.Archive == nil {
		return nil, fmt.Errorf("ingest service: missing deps")
	}
	if strings.TrimSpace(cfg.JSONBaseDir) == "" {
		cfg.JSONBaseDir = "data"
	}
	return &ingestService{
		deps: deps,
		cfg:  cfg,
		log:  deps.Log.With("service", "IngestService"),
	}, nil
}

func invalid(msg string) error {
	return apierr.New(http.StatusBadRequest, "invalid_argument", fmt.Errorf("%w: %s", ErrInvalidArgument, msg))
}

func (s *ingestService) SubmitPDF(ctx context.Context, offerName string, data []byte) (string, error) {
	if strings.TrimSpace(offerName) == "" {
		return "", invalid("offer_name is required")
	}
	if len(data) == 0 {
		return "", invalid("file is empty")
	}
	jobID := s.deps.Jobs.Create()

	// The run outlives the request; keep its values (trace ids) but not its cancellation.
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.RunPDF(runCtx, jobID, offerName, data)
	}()
	return jobID, nil
}

func (s *ingestService) RunPDF(ctx context.Context, jobID string, offerName string, data []byte) (out steps.IngestPDFOutput, err error) {
	log := s.log.With("job_id", jobID, "offer_name", offerName)
	s.deps.Jobs.Update(jobID, tracker.Progress("start", 0, "Ingestion started"))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ingestion panic: %v", r)
		}
		if err != nil {
			log.Error("Ingestion failed", "error", err)
			s.deps.Jobs.Update(jobID, tracker.Failed(err))
			s.deps.Metrics.ObserveIngestRun("pdf", "failed")
			return
		}
		s.deps.Jobs.Update(jobID, tracker.Completed(out.Counts.Map()))
		s.deps.Metrics.ObserveIngestRun("pdf", "ok")
	}()

	extractor, err := s.deps.Extractors(ctx)
	if err != nil {
		return out, fmt.Errorf("extraction service unavailable: %w", err)
	}

	start := time.Now()
	out, err = steps.IngestPDF(ctx, steps.IngestPDFDeps{
		DB:      s.deps.DB,
		Log:     s.deps.Log,
		Repos:   s.deps.Repos,
		Text:    s.deps.Text,
		Extract: extractor,
		Archive: s.deps.Archive,
		Metrics: s.deps.Metrics,
	}, steps.IngestPDFInput{
		JobID:     jobID,
		OfferName: offerName,
		Data:      data,
	}, steps.IngestPDFOptions{
		Concurrency:      s.cfg.Concurrency,
		FullTextMaxChars: s.cfg.FullTextMaxChars,
		Report:           s.deps.Jobs.ReportFunc(jobID),
	})
	if err != nil {
		return out, err
	}
	// Progress reports are queued; drain them so the terminal update lands last.
	s.deps.Jobs.Flush()
	log.Info("Ingestion completed", "offer_id", out.OfferID, "duration", time.Since(start))
	return out, nil
}

func (s *ingestService) GetJob(ctx context.Context, jobID string) (tracker.State, error) {
	if st, ok := s.deps.Jobs.Get(jobID); ok {
		return st, nil
	}
	if s.deps.Snapshots != nil {
		st, ok, err := s.deps.Snapshots.Get(ctx, jobID)
		if err != nil {
			s.log.Warn("Job snapshot lookup failed", "job_id", jobID, "error", err)
		} else if ok {
			return st, nil
		}
	}
	return tracker.State{}, apierr.New(http.StatusNotFound, "job_not_found", ErrJobNotFound)
}

func (s *ingestService) IngestJSON(ctx context.Context, offerName string, baseDir string) (types.IngestCounts, error) {
	if strings.TrimSpace(offerName) == "" {
		return types.IngestCounts{}, invalid("offer_name is required")
	}
	if strings.TrimSpace(baseDir) == "" {
		baseDir = s.cfg.JSONBaseDir
	}
	out, err := steps.IngestFromJSON(ctx, steps.IngestJSONDeps{
		DB:    s.deps.DB,
		Log:   s.deps.Log,
		Repos: s.deps.Repos,
	}, steps.IngestJSONInput{OfferName: offerName, BaseDir: baseDir})
	if err != nil {
		s.deps.Metrics.ObserveIngestRun("json", "failed")
		return types.IngestCounts{}, err
	}
	s.deps.Metrics.ObserveIngestRun("json", "ok")
	return out.Counts, nil
}

func (s *ingestService) InitDB(ctx context.Context) error {
	db := s.deps.DB.WithContext(ctx)
	if err := dbpkg.AutoMigrateAll(db); err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	s.log.Info("Database schema initialised")
	return nil
}

func (s *ingestService) GetOfferTree(ctx context.Context, offerID uint) (*types.Offer, error) {
	if offerID == 0 {
		return nil, invalid("offer id is required")
	}
	offer, err := s.deps.Repos.Offers.GetTree(dbctx.Context{Ctx: ctx}, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, "offer_not_found", ErrOfferNotFound)
		}
		return nil, err
	}
	return offer, nil
}

func (s *ingestService) Wait() { s.wg.Wait() }
