package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dbpkg "github.com/yungbote/lvflow-backend/internal/data/db"
	"github.com/yungbote/lvflow-backend/internal/modules/offers/pdftext"
	"github.com/yungbote/lvflow-backend/internal/platform/envutil"
)

type LLMConfig struct {
	Provider   string
	Model      string
	MaxRetries int
}

type ArchiveConfig struct {
	Backend      string
	Dir          string
	GCSBucket    string
	GCSPrefix    string
	EmulatorHost string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	LogMode        string
	HTTPAddr       string
	ServiceName    string
	CORSOrigins    []string
	MaxUploadBytes int64

	DB          dbpkg.Config
	AutoMigrate bool

	GroupConcurrency int
	PageMarker       string
	FullTextMaxChars int
	JSONBaseDir      string

	LLM     LLMConfig
	Archive ArchiveConfig
	Redis   RedisConfig

	JobRetention   time.Duration
	MetricsEnabled bool
}

// LoadEnvFiles seeds the process environment from .env and the optional YAML file
// named by LVFLOW_CONFIG_FILE. Variables already set in the environment win.
func LoadEnvFiles() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	path := strings.TrimSpace(os.Getenv("LVFLOW_CONFIG_FILE"))
	if path == "" {
		return nil
	}
	return applyYAMLOverlay(path)
}

// applyYAMLOverlay reads a flat KEY: value document and sets missing env vars from it.
func applyYAMLOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	for k, v := range values {
		key := strings.ToUpper(strings.TrimSpace(k))
		if key == "" || v == nil {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(v)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func LoadConfig() Config {
	return Config{
		LogMode:        envutil.String("LOG_MODE", "development"),
		HTTPAddr:       envutil.String("HTTP_ADDR", ":8080"),
		ServiceName:    envutil.String("OTEL_SERVICE_NAME", "lvflow"),
		CORSOrigins:    splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		MaxUploadBytes: int64(envutil.Int("MAX_UPLOAD_MB", 64)) << 20,

		DB: dbpkg.Config{
			Driver:           envutil.String("DB_DRIVER", dbpkg.DriverPostgres),
			DSN:              envutil.String("DATABASE_URL", ""),
			PostgresUser:     envutil.String("POSTGRES_USER", "lvuser"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "lvpass"),
			PostgresDB:       envutil.String("POSTGRES_DB", "lvflow"),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			SQLitePath:       envutil.String("SQLITE_PATH", "data/lvflow.db"),
			MaxOpenConns:     envutil.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:     envutil.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  envutil.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),

		GroupConcurrency: envutil.Int("INGEST_GROUP_CONCURRENCY", 4),
		PageMarker:       envutil.String("INGEST_PAGE_MARKER", pdftext.DefaultPageMarker),
		FullTextMaxChars: envutil.Int("INGEST_FULLTEXT_MAX_CHARS", 0),
		JSONBaseDir:      envutil.String("INGEST_JSON_BASE_DIR", "data"),

		LLM: LLMConfig{
			Provider:   strings.ToLower(envutil.String("LLM_PROVIDER", "openai")),
			Model:      envutil.String("LLM_MODEL", ""),
			MaxRetries: envutil.Int("LLM_MAX_RETRIES", 0),
		},
		Archive: ArchiveConfig{
			Backend:      strings.ToLower(envutil.String("ARCHIVE_BACKEND", "local")),
			Dir:          envutil.String("ARCHIVE_DIR", "data/pdfs"),
			GCSBucket:    envutil.String("ARCHIVE_GCS_BUCKET", ""),
			GCSPrefix:    envutil.String("ARCHIVE_GCS_PREFIX", "pdfs"),
			EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		},
		Redis: RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},

		JobRetention:   envutil.Duration("JOB_RETENTION", 24*time.Hour),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
