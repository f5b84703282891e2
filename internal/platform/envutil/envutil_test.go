package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("EU_INT", "7")
	t.Setenv("EU_BAD_INT", "x")
	t.Setenv("EU_BOOL", "on")
	t.Setenv("EU_DUR", "90s")
	t.Setenv("EU_DUR_SECS", "5")
	t.Setenv("EU_STR", "  hi ")

	if got := Int("EU_INT", 1); got != 7 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("EU_BAD_INT", 3); got != 3 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if !Bool("EU_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Duration("EU_DUR", 0); got != 90*time.Second {
		t.Fatalf("Duration: got %s", got)
	}
	if got := Duration("EU_DUR_SECS", 0); got != 5*time.Second {
		t.Fatalf("Duration secs: got %s", got)
	}
	if got := String("EU_STR", "d"); got != "hi" {
		t.Fatalf("String: got %q", got)
	}
	if got := String("EU_MISSING", "d"); got != "d" {
		t.Fatalf("String default: got %q", got)
	}
}
