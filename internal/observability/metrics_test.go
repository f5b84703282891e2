package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/jobs/:id", "200", 20*time.Millisecond)
	m.ObserveLLMRequest("openai", "gpt-4o-mini", "ok", time.Second, 120, 30)
	m.IncGroup("ok")
	m.IncGroup("ok")
	m.IncGroup("failed")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`lvflow_api_requests_total{method="GET",route="/jobs/:id",status="200"} 1`,
		`lvflow_llm_tokens_total{provider="openai",model="gpt-4o-mini",direction="input"} 120`,
		`lvflow_ingest_groups_total{status="ok"} 2`,
		`lvflow_api_request_seconds_bucket{method="GET",route="/jobs/:id",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if m.GroupCount("failed") != 1 {
		t.Fatalf("GroupCount(failed) = %v", m.GroupCount("failed"))
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncGroup("ok")
	m.ObserveIngestRun("pdf", "completed")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{"x\"y"})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString = %s", got)
	}
	if StatusLabel(nil) != "ok" || StatusLabel(errors.New("boom")) != "error" {
		t.Fatalf("unexpected status labels")
	}
}
