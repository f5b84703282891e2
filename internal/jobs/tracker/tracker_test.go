package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

func newTestTracker(t *testing.T, opts Options) *Tracker {
	t.Helper()
	return New(logger.Nop(), opts)
}

func TestCreateAndGet(t *testing.T) {
	tr := newTestTracker(t, Options{})
	id := tr.Create()
	st, ok := tr.Get(id)
	if !ok {
		t.Fatalf("expected job %s", id)
	}
	if st.Status != StatusPending || st.Progress != 0 {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if _, ok := tr.Get("missing"); ok {
		t.Fatalf("unknown id should be absent")
	}
}

func TestUpdateClampsProgress(t *testing.T) {
	tr := newTestTracker(t, Options{})
	id := tr.Create()

	tr.Update(id, Progress("extract_text", 250, "too far"))
	if st, _ := tr.Get(id); st.Progress != 100 {
		t.Fatalf("expected clamp to 100, got %d", st.Progress)
	}

	other := tr.Create()
	tr.Update(other, Progress("x", -5, "negative"))
	if st, _ := tr.Get(other); st.Progress != 0 || st.Status != StatusRunning {
		t.Fatalf("expected clamp to 0 and running, got %+v", st)
	}
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	tr := newTestTracker(t, Options{})
	tr.Update("nope", Progress("x", 10, "y"))
	if _, ok := tr.Get("nope"); ok {
		t.Fatalf("update must not create jobs")
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	tr := newTestTracker(t, Options{})
	id := tr.Create()
	tr.Update(id, Progress("groups_in_flight", 60, "a"))
	tr.Update(id, Progress("groups_in_flight", 40, "b"))
	st, _ := tr.Get(id)
	if st.Progress != 60 {
		t.Fatalf("expected progress to stay at 60, got %d", st.Progress)
	}
	if st.Message != "b" {
		t.Fatalf("other fields still apply, got message %q", st.Message)
	}
}

func TestTerminalStateIsSticky(t *testing.T) {
	tr := newTestTracker(t, Options{})
	id := tr.Create()
	tr.Update(id, Completed(map[string]any{"groups": 2}))
	tr.Update(id, Progress("late", 50, "late report"))
	tr.Update(id, Failed(errors.New("late failure")))

	st, _ := tr.Get(id)
	if st.Status != StatusCompleted || st.Progress != 100 || st.Stage != "done" {
		t.Fatalf("terminal state changed: %+v", st)
	}
	if st.Result["groups"] != 2 {
		t.Fatalf("result lost: %+v", st.Result)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	tr := newTestTracker(t, Options{})
	id := tr.Create()
	tr.Update(id, Completed(map[string]any{"groups": 1}))
	st, _ := tr.Get(id)
	st.Result["groups"] = 99
	again, _ := tr.Get(id)
	if again.Result["groups"] != 1 {
		t.Fatalf("Get must not expose internal state")
	}
}

func TestSendNeverBlocks(t *testing.T) {
	tr := newTestTracker(t, Options{Buffer: 2})
	id := tr.Create()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			tr.Send(id, Progress("x", i*10, "tick"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Send blocked with no consumer")
	}
	if tr.Dropped() != 8 {
		t.Fatalf("expected 8 dropped reports, got %d", tr.Dropped())
	}

	tr.Flush()
	if st, _ := tr.Get(id); st.Progress != 10 {
		t.Fatalf("expected the two queued reports applied, progress=%d", st.Progress)
	}
}

func TestStartAppliesConcurrentReports(t *testing.T) {
	tr := newTestTracker(t, Options{Buffer: 1024})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		tr.Start(ctx)
		close(stopped)
	}()

	id := tr.Create()
	report := tr.ReportFunc(id)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i <= 10; i++ {
				report("groups_in_flight", i*10, "work")
			}
		}(w)
	}
	wg.Wait()
	cancel()
	<-stopped

	st, _ := tr.Get(id)
	if st.Progress != 100 || st.Status != StatusRunning {
		t.Fatalf("unexpected state after concurrent reports: %+v", st)
	}
}

type memSink struct {
	mu      sync.Mutex
	puts    map[string]State
	deletes []string
}

func (s *memSink) Put(_ context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts[st.ID] = st
	return nil
}

func (s *memSink) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return nil
}

func TestReapRemovesExpiredTerminalJobs(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sink := &memSink{puts: map[string]State{}}
	tr := newTestTracker(t, Options{
		Retention: time.Hour,
		Sink:      sink,
		Now:       func() time.Time { return now },
	})

	done := tr.Create()
	tr.Update(done, Completed(nil))
	running := tr.Create()
	tr.Update(running, Progress("x", 10, "y"))

	now = now.Add(2 * time.Hour)
	if n := tr.Reap(); n != 1 {
		t.Fatalf("expected 1 reaped job, got %d", n)
	}
	if _, ok := tr.Get(done); ok {
		t.Fatalf("completed job should be reaped")
	}
	if _, ok := tr.Get(running); !ok {
		t.Fatalf("running job must survive reaping")
	}

	tr.Update(done, Progress("late", 90, "after reap"))
	if _, ok := tr.Get(done); ok {
		t.Fatalf("late report must not resurrect a reaped job")
	}

	if got := sink.puts[running]; got.Progress != 10 {
		t.Fatalf("sink not mirrored: %+v", got)
	}
	if len(sink.deletes) != 1 || sink.deletes[0] != done {
		t.Fatalf("sink deletes: %v", sink.deletes)
	}
}
