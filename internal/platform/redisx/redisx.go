package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lvflow-backend/internal/jobs/tracker"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces job snapshot keys ("lvflow:job:" by default).
	KeyPrefix string
	TTL       time.Duration
}

// NewClient dials redis and fails fast when the server is unreachable.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// JobSink mirrors tracker snapshots as JSON strings with a TTL.
type JobSink struct {
	log    *logger.Logger
	rdb    goredis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ tracker.Sink = (*JobSink)(nil)

func NewJobSink(log *logger.Logger, rdb goredis.Cmdable, cfg Config) *JobSink {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "lvflow:job:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobSink{
		log:    log.With("service", "RedisJobSink"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *JobSink) key(id string) string { return s.prefix + id }

func (s *JobSink) Put(ctx context.Context, st tracker.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal job snapshot: %w", err)
	}
	return s.rdb.Set(ctx, s.key(st.ID), raw, s.ttl).Err()
}

func (s *JobSink) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}

// Get reads a mirrored snapshot. The bool is false when the key is absent.
func (s *JobSink) Get(ctx context.Context, id string) (tracker.State, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err == goredis.Nil {
		return tracker.State{}, false, nil
	}
	if err != nil {
		return tracker.State{}, false, err
	}
	var st tracker.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return tracker.State{}, false, fmt.Errorf("decode job snapshot: %w", err)
	}
	return st, true, nil
}
