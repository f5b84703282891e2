package tracker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

// Sink mirrors job snapshots somewhere other processes can read them.
type Sink interface {
	Put(ctx context.Context, st State) error
	Delete(ctx context.Context, id string) error
}

type Options struct {
	// Buffer is the capacity of the fire-and-forget report queue.
	Buffer       int
	Retention    time.Duration
	ReapInterval time.Duration
	Sink         Sink
	Now          func() time.Time
}

type message struct {
	id string
	u  Update
}

// Tracker is the in-process job registry. Every write goes through mu.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*State

	reports chan message
	dropped atomic.Uint64

	retention    time.Duration
	reapInterval time.Duration
	sink         Sink
	now          func() time.Time
	log          *logger.Logger
}

func New(log *logger.Logger, opts Options) *Tracker {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Retention <= 0 {
		opts.Retention = 24 * time.Hour
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		jobs:         map[string]*State{},
		reports:      make(chan message, opts.Buffer),
		retention:    opts.Retention,
		reapInterval: opts.ReapInterval,
		sink:         opts.Sink,
		now:          opts.Now,
		log:          log.With("component", "JobTracker"),
	}
}

func (t *Tracker) Create() string {
	now := t.now()
	st := &State{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Stage:     "queued",
		Message:   "Job queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.mu.Lock()
	t.jobs[st.ID] = st
	snapshot := st.clone()
	t.mu.Unlock()

	t.mirror(snapshot)
	return st.ID
}

// Update applies u synchronously. Unknown ids are ignored. Progress is clamped to
// 0..100 and never moves backwards; once a job is terminal it no longer changes.
func (t *Tracker) Update(id string, u Update) {
	t.mu.Lock()
	st, ok := t.jobs[id]
	if !ok || st.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	if u.Status != nil {
		st.Status = *u.Status
	}
	if u.Progress != nil {
		if p := clampProgress(*u.Progress); p > st.Progress {
			st.Progress = p
		}
	}
	if u.Stage != nil {
		st.Stage = *u.Stage
	}
	if u.Message != nil {
		st.Message = *u.Message
	}
	if u.Result != nil {
		st.Result = u.Result
	}
	if u.Error != nil {
		st.Error = *u.Error
	}
	st.UpdatedAt = t.now()
	snapshot := st.clone()
	t.mu.Unlock()

	t.mirror(snapshot)
}

func (t *Tracker) Get(id string) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.jobs[id]
	if !ok {
		return State{}, false
	}
	return st.clone(), true
}

// Send queues u without blocking. When the queue is full the report is dropped.
func (t *Tracker) Send(id string, u Update) {
	select {
	case t.reports <- message{id: id, u: u}:
	default:
		t.dropped.Add(1)
	}
}

// ReportFunc adapts Send to the pipeline's progress callback.
func (t *Tracker) ReportFunc(id string) func(stage string, pct int, message string) {
	return func(stage string, pct int, message string) {
		t.Send(id, Progress(stage, pct, message))
	}
}

func (t *Tracker) Dropped() uint64 { return t.dropped.Load() }

// Start drains queued reports and reaps expired jobs until ctx is done.
func (t *Tracker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.drain()
			return
		case m := <-t.reports:
			t.Update(m.id, m.u)
		case <-ticker.C:
			if n := t.Reap(); n > 0 {
				t.log.Debug("reaped jobs", "count", n)
			}
		}
	}
}

// Flush applies every report queued so far.
func (t *Tracker) Flush() { t.drain() }

func (t *Tracker) drain() {
	for {
		select {
		case m := <-t.reports:
			t.Update(m.id, m.u)
		default:
			return
		}
	}
}

// Reap removes terminal jobs whose last update is older than the retention window.
func (t *Tracker) Reap() int {
	cutoff := t.now().Add(-t.retention)
	var removed []string
	t.mu.Lock()
	for id, st := range t.jobs {
		if st.Status.Terminal() && st.UpdatedAt.Before(cutoff) {
			delete(t.jobs, id)
			removed = append(removed, id)
		}
	}
	t.mu.Unlock()

	if t.sink != nil {
		for _, id := range removed {
			if err := t.sink.Delete(context.Background(), id); err != nil {
				t.log.Debug("job sink delete failed", "job_id", id, "error", err)
			}
		}
	}
	return len(removed)
}

func (t *Tracker) mirror(st State) {
	if t.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := t.sink.Put(ctx, st); err != nil {
		t.log.Debug("job sink put failed", "job_id", st.ID, "error", err)
	}
}
