package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse means the response held no decodable JSON object.
	ErrParse = errors.New("unparsable structured response")
	// ErrSchema means the JSON decoded but does not have the task's shape.
	ErrSchema = errors.New("structured response does not match schema")
)

// RepairJSON returns the JSON text of raw. A strict decode is tried first; failing
// that, the span from the first '{' to the last '}' is decoded. Nothing else is repaired.
func RepairJSON(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) && trimmed != "" {
		return []byte(trimmed), nil
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		candidate := []byte(raw[start : end+1])
		if json.Valid(candidate) {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrParse, preview(raw))
}

type validator interface {
	Validate(v interface{}) error
}

// decodeInto repairs raw, validates it against schema, then decodes it into out.
func decodeInto(raw string, schema validator, out any) error {
	data, err := RepairJSON(raw)
	if err != nil {
		return err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if schema != nil {
		if err := schema.Validate(generic); err != nil {
			return fmt.Errorf("%w: %v", ErrSchema, err)
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
