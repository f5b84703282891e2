package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     atomic.Int32
	prompts   []string
}

func (s *scriptedCompleter) GenerateText(_ context.Context, _ string, user string) (string, error) {
	i := int(s.calls.Add(1)) - 1
	s.prompts = append(s.prompts, user)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return s.responses[len(s.responses)-1], nil
}

func newClient(t *testing.T, c Completer) *Client {
	t.Helper()
	client, err := NewClient(c, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestRepairJSON(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"strict", `{"a":1}`, `{"a":1}`, false},
		{"padded", "  {\"a\":1}\n", `{"a":1}`, false},
		{"prose around", "Hier ist das JSON:\n```json\n{\"a\":{\"b\":2}}\n```\nViel Erfolg!", `{"a":{"b":2}}`, false},
		{"no braces", "keine Daten", "", true},
		{"broken inside", `Antwort: {"a": [1, 2}`, "", true},
		{"empty", "", "", true},
	}
	for _, tc := range cases {
		got, err := RepairJSON(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrParse) {
				t.Fatalf("%s: expected ErrParse, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if string(got) != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestExtractGroups(t *testing.T) {
	fake := &scriptedCompleter{responses: []string{`Gerne! {"document_title": "LV Hallenbad", "groups": [
		{"group_no": "1.1", "title": " Rohbau ", "page_from": 1, "page_to": 3},
		{"group_no": null, "title": "Allgemeines", "page_from": null, "page_to": null}
	]}`}}
	groups, err := newClient(t, fake).ExtractGroups(context.Background(), "Seite: 1 Rohbau")
	if err != nil {
		t.Fatalf("ExtractGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Title != "Rohbau" || *groups[0].GroupNo != "1.1" || *groups[0].PageTo != 3 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if groups[1].GroupNo != nil || groups[1].PageFrom != nil {
		t.Fatalf("nulls should stay nil: %+v", groups[1])
	}
	if !strings.Contains(fake.prompts[0], "Seite: 1 Rohbau") || !strings.Contains(fake.prompts[0], `"group_no"`) {
		t.Fatalf("prompt should embed text and schema")
	}
}

func TestExtractGroupsSchemaViolation(t *testing.T) {
	fake := &scriptedCompleter{responses: []string{`{"groups": [{"group_no": "1", "title": "x", "page_from": "fünf"}]}`}}
	_, err := newClient(t, fake).ExtractGroups(context.Background(), "text")
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestExtractVariantsParseFailure(t *testing.T) {
	fake := &scriptedCompleter{responses: []string{"Ich konnte keine Varianten finden."}}
	_, err := newClient(t, fake).ExtractVariants(context.Background(), "1.1", "Rohbau", "text")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestExtractVariantsAndComponents(t *testing.T) {
	fake := &scriptedCompleter{responses: []string{
		`{"variants": [{"variant_no": "1.1.10", "title": "Tür", "page_from": 4, "page_to": 4, "text": "Holztür T30"}, {"variant_no": null, "title": "Zulage", "text": null}]}`,
		`{"components": [{"component_description": "Drückergarnitur", "variant_nos": ["1.1.10", "9.9.9"]}]}`,
	}}
	client := newClient(t, fake)
	variants, err := client.ExtractVariants(context.Background(), "1.1", "Rohbau", "Seite: 4 Tür")
	if err != nil {
		t.Fatalf("ExtractVariants: %v", err)
	}
	if len(variants) != 2 || variants[0].Text != "Holztür T30" || variants[1].Text != "" {
		t.Fatalf("unexpected variants: %+v", variants)
	}

	components, err := client.ExtractComponents(context.Background(), "1.1", "Rohbau", []VariantLine{{No: "1.1.10", Title: "Tür", Text: "Holztür T30"}})
	if err != nil {
		t.Fatalf("ExtractComponents: %v", err)
	}
	if len(components) != 1 || len(components[0].VariantNos) != 2 {
		t.Fatalf("unexpected components: %+v", components)
	}
	if !strings.Contains(fake.prompts[1], "1.1.10: Tür text: Holztür T30") {
		t.Fatalf("component prompt missing variant line:\n%s", fake.prompts[1])
	}
}

func TestExtractPropagatesServiceError(t *testing.T) {
	fake := &scriptedCompleter{errs: []error{errors.New("upstream down")}, responses: []string{""}}
	_, err := newClient(t, fake).ExtractGroups(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("http %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestWithRetry(t *testing.T) {
	fake := &scriptedCompleter{errs: []error{statusErr(503), statusErr(429)}, responses: []string{"", "", "ok"}}
	c := &retryingCompleter{next: fake, maxRetries: 2, initial: time.Millisecond, log: logger.Nop()}
	out, err := c.GenerateText(context.Background(), "s", "u")
	if err != nil || out != "ok" {
		t.Fatalf("GenerateText: out=%q err=%v", out, err)
	}
	if fake.calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", fake.calls.Load())
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	fake := &scriptedCompleter{errs: []error{statusErr(401)}, responses: []string{"ok"}}
	c := &retryingCompleter{next: fake, maxRetries: 3, initial: time.Millisecond, log: logger.Nop()}
	if _, err := c.GenerateText(context.Background(), "s", "u"); err == nil {
		t.Fatalf("expected error")
	}
	if fake.calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", fake.calls.Load())
	}
}

func TestWithRetryDisabled(t *testing.T) {
	fake := &scriptedCompleter{responses: []string{"ok"}}
	if got := WithRetry(fake, 0, logger.Nop()); got != Completer(fake) {
		t.Fatalf("expected the completer unchanged")
	}
}
