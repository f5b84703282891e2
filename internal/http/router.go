package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lvflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lvflow-backend/internal/http/middleware"
	"github.com/yungbote/lvflow-backend/internal/observability"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	ServiceName string

	HealthHandler *httpH.HealthHandler
	IngestHandler *httpH.IngestHandler
	JobHandler    *httpH.JobHandler
	OfferHandler  *httpH.OfferHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health/ready", cfg.HealthHandler.Ready)
		r.GET("/health/live", cfg.HealthHandler.Live)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Ingestion
	if cfg.IngestHandler != nil {
		ingest := r.Group("/ingest")
		ingest.POST("/init-db", cfg.IngestHandler.InitDB)
		ingest.POST("/from-json", cfg.IngestHandler.FromJSON)
		ingest.POST("/upload", cfg.IngestHandler.Upload)
	}
	if cfg.JobHandler != nil {
		r.GET("/jobs/:id", cfg.JobHandler.GetJob)
	}
	if cfg.OfferHandler != nil {
		r.GET("/offers/:id", cfg.OfferHandler.GetOffer)
	}
	return r
}
