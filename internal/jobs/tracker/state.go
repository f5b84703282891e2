package tracker

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// State is the pollable view of one job.
type State struct {
	ID        string         `json:"job_id"`
	Status    Status         `json:"status"`
	Progress  int            `json:"progress"`
	Stage     string         `json:"stage"`
	Message   string         `json:"message"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s State) clone() State {
	if s.Result != nil {
		res := make(map[string]any, len(s.Result))
		for k, v := range s.Result {
			res[k] = v
		}
		s.Result = res
	}
	return s
}

// Update carries the fields to change; nil fields are left alone.
type Update struct {
	Status   *Status
	Progress *int
	Stage    *string
	Message  *string
	Result   map[string]any
	Error    *string
}

// Progress is the update a running pipeline emits at each checkpoint.
func Progress(stage string, pct int, message string) Update {
	st := StatusRunning
	return Update{Status: &st, Progress: &pct, Stage: &stage, Message: &message}
}

func Completed(result map[string]any) Update {
	st := StatusCompleted
	pct := 100
	stage := "done"
	msg := "Ingestion completed"
	return Update{Status: &st, Progress: &pct, Stage: &stage, Message: &msg, Result: result}
}

func Failed(err error) Update {
	st := StatusFailed
	stage := "failed"
	text := "unknown error"
	if err != nil {
		text = err.Error()
	}
	return Update{Status: &st, Stage: &stage, Message: &text, Error: &text}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
