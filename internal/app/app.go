package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	dbpkg "github.com/yungbote/lvflow-backend/internal/data/db"
	offersrepo "github.com/yungbote/lvflow-backend/internal/data/repos/offers"
	lvhttp "github.com/yungbote/lvflow-backend/internal/http"
	httpH "github.com/yungbote/lvflow-backend/internal/http/handlers"
	"github.com/yungbote/lvflow-backend/internal/jobs/tracker"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/archive"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/pdftext"
	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/gcp"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"github.com/yungbote/lvflow-backend/internal/platform/redisx"
	"github.com/yungbote/lvflow-backend/internal/services"
)

type App struct {
	Log     *logger.Logger
	Cfg     Config
	DB      *dbpkg.Service
	Jobs    *tracker.Tracker
	Ingest  services.IngestService
	Server  *lvhttp.Server
	Metrics *observability.Metrics

	redis        *goredis.Client
	bucket       *gcp.Bucket
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New wires the application from the environment. The caller owns Close.
func New(ctx context.Context) (*App, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}
	cfg := LoadConfig()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{ServiceName: cfg.ServiceName})
	if cfg.MetricsEnabled {
		a.Metrics = observability.Init(log)
	}

	if err := a.wire(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, log := a.Cfg, a.Log

	store, err := dbpkg.Open(cfg.DB, log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.DB = store
	if cfg.AutoMigrate {
		if err := dbpkg.AutoMigrateAll(store.DB()); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	var sink *redisx.JobSink
	if cfg.Redis.Addr != "" {
		rdb, err := redisx.NewClient(ctx, redisx.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		a.redis = rdb
		sink = redisx.NewJobSink(log, rdb, redisx.Config{TTL: cfg.JobRetention})
	}

	jobOpts := tracker.Options{Retention: cfg.JobRetention}
	if sink != nil {
		jobOpts.Sink = sink
	}
	a.Jobs = tracker.New(log, jobOpts)

	archiver, err := a.newArchiver(ctx)
	if err != nil {
		return err
	}
	text, err := pdftext.NewExtractor(cfg.PageMarker, log)
	if err != nil {
		return err
	}

	deps := services.IngestServiceDeps{
		DB:         store.DB(),
		Log:        log,
		Repos:      offersrepo.NewRepos(store.DB(), log),
		Jobs:       a.Jobs,
		Text:       text,
		Extractors: extractorFactory(log, cfg.LLM),
		Archive:    archiver,
		Metrics:    a.Metrics,
	}
	if sink != nil {
		deps.Snapshots = sink
	}
	a.Ingest, err = services.NewIngestService(deps, services.IngestConfig{
		Concurrency:      cfg.GroupConcurrency,
		FullTextMaxChars: cfg.FullTextMaxChars,
		JSONBaseDir:      cfg.JSONBaseDir,
	})
	if err != nil {
		return err
	}

	a.Server = lvhttp.NewServer(lvhttp.RouterConfig{
		Log:           log,
		Metrics:       a.Metrics,
		CORSOrigins:   cfg.CORSOrigins,
		ServiceName:   cfg.ServiceName,
		HealthHandler: httpH.NewHealthHandler(a.ready),
		IngestHandler: httpH.NewIngestHandler(a.Ingest, cfg.MaxUploadBytes),
		JobHandler:    httpH.NewJobHandler(a.Ingest),
		OfferHandler:  httpH.NewOfferHandler(a.Ingest),
	})
	return nil
}

func (a *App) newArchiver(ctx context.Context) (archive.Archiver, error) {
	switch a.Cfg.Archive.Backend {
	case "", "local":
		return archive.NewLocalArchiver(a.Log, a.Cfg.Archive.Dir), nil
	case "gcs":
		bucket, err := gcp.NewBucket(ctx, a.Log, gcp.BucketConfig{
			Name:         a.Cfg.Archive.GCSBucket,
			Prefix:       a.Cfg.Archive.GCSPrefix,
			EmulatorHost: a.Cfg.Archive.EmulatorHost,
		})
		if err != nil {
			return nil, fmt.Errorf("init archive bucket: %w", err)
		}
		a.bucket = bucket
		return archive.NewObjectArchiver(a.Log, bucket), nil
	default:
		return nil, fmt.Errorf("unknown ARCHIVE_BACKEND %q", a.Cfg.Archive.Backend)
	}
}

func (a *App) ready(ctx context.Context) error {
	sqlDB, err := a.DB.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Start launches background loops: tracker consumer/reaper and metrics collectors.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go a.Jobs.Start(ctx)
	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB.DB())
		if a.redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.redis)
		}
		go func() {
			t := time.NewTicker(15 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					a.Metrics.SetJobReportsDropped(a.Jobs.Dropped())
				}
			}
		}()
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(a.Cfg.HTTPAddr)
}

// Close stops the server, waits for in-flight runs and releases clients.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown failed", "error", err)
		}
	}
	if a.Ingest != nil {
		a.Ingest.Wait()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Jobs != nil {
		a.Jobs.Flush()
	}
	if a.bucket != nil {
		_ = a.bucket.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
