package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/lvflow-backend/internal/platform/envutil"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	llmRequests  *CounterVec
	llmLatency   *HistogramVec
	llmTokens    *CounterVec
	ingestRuns   *CounterVec
	ingestStage  *HistogramVec
	ingestGroups *CounterVec
	jobsDropped  *Gauge
	dbOpenConns  *Gauge
	dbInUseConns *Gauge
	redisUp      *Gauge
	families     []interface{ WritePrometheus(io.Writer) error }
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		log.Info("metrics enabled")
	})
	return instance
}

// NewMetrics builds an unregistered instance. Tests use it directly.
func NewMetrics() *Metrics {
	m := &Metrics{
		apiRequests:  NewCounterVec("lvflow_api_requests_total", "HTTP requests", []string{"method", "route", "status"}),
		apiLatency:   NewHistogramVec("lvflow_api_request_seconds", "HTTP request latency", []string{"method", "route"}, nil),
		apiInflight:  NewGauge("lvflow_api_inflight", "HTTP requests in flight"),
		llmRequests:  NewCounterVec("lvflow_llm_requests_total", "Structured extraction calls", []string{"provider", "model", "status"}),
		llmLatency:   NewHistogramVec("lvflow_llm_request_seconds", "Structured extraction latency", []string{"provider", "model"}, nil),
		llmTokens:    NewCounterVec("lvflow_llm_tokens_total", "Tokens reported by the extraction service", []string{"provider", "model", "direction"}),
		ingestRuns:   NewCounterVec("lvflow_ingest_runs_total", "Ingestion runs by source and outcome", []string{"source", "status"}),
		ingestStage:  NewHistogramVec("lvflow_ingest_stage_seconds", "Ingestion stage duration", []string{"stage", "status"}, nil),
		ingestGroups: NewCounterVec("lvflow_ingest_groups_total", "Group tasks by outcome", []string{"status"}),
		jobsDropped:  NewGauge("lvflow_job_reports_dropped", "Progress reports dropped because the tracker queue was full"),
		dbOpenConns:  NewGauge("lvflow_db_open_connections", "Open database connections"),
		dbInUseConns: NewGauge("lvflow_db_in_use_connections", "Database connections in use"),
		redisUp:      NewGauge("lvflow_redis_up", "Redis reachability"),
	}
	m.families = []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.ingestRuns, m.ingestStage, m.ingestGroups,
		m.jobsDropped, m.dbOpenConns, m.dbInUseConns, m.redisUp,
	}
	return m
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, f := range m.families {
		if err := f.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(provider, model, status)
	m.llmLatency.Observe(dur.Seconds(), provider, model)
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), provider, model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), provider, model, "output")
	}
}

func (m *Metrics) ObserveIngestRun(source, status string) {
	if m != nil {
		m.ingestRuns.Inc(source, status)
	}
}

func (m *Metrics) ObserveIngestStage(stage, status string, dur time.Duration) {
	if m != nil {
		m.ingestStage.Observe(dur.Seconds(), stage, status)
	}
}

func (m *Metrics) IncGroup(status string) {
	if m != nil {
		m.ingestGroups.Inc(status)
	}
}

func (m *Metrics) GroupCount(status string) float64 {
	if m == nil {
		return 0
	}
	return m.ingestGroups.Value(status)
}

func (m *Metrics) SetJobReportsDropped(n uint64) {
	if m != nil {
		m.jobsDropped.Set(float64(n))
	}
}

func scrapeInterval() time.Duration {
	return envutil.Duration("METRICS_SCRAPE_INTERVAL", 15*time.Second)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("metrics: db handle unavailable", "error", err)
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := sqlDB.Stats()
				m.dbOpenConns.Set(float64(stats.OpenConnections))
				m.dbInUseConns.Set(float64(stats.InUse))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					log.Warn("metrics: redis ping failed", "error", err)
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if strings.Contains(strings.ToLower(err.Error()), "context deadline exceeded") {
		return "timeout"
	}
	return "error"
}

// StatusLabel maps an error to the status label used across metrics.
func StatusLabel(err error) string { return statusLabel(err) }
