package workflow

import (
	"bytes"
	"encoding/json"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusFallback Status = "fallback"
	StatusError    Status = "error"
)

const (
	StepFetch            = "fetch-post"
	StepGenerate         = "generate-meta"
	StepGenerateFallback = "generate-meta-fallback"
	StepUpdate           = "wp-update"
)

// Step is one recorded workflow step. Detail holds step-specific fields such as url or engine.
type Step struct {
	Name   string
	Status Status
	Detail map[string]any
}

// StepTrace is the ordered, append-only record of a run's steps.
type StepTrace struct {
	steps []Step
}

// Append records a step. Existing entries are never modified.
func (t *StepTrace) Append(name string, status Status, detail map[string]any) {
	t.steps = append(t.steps, Step{Name: name, Status: status, Detail: detail})
}

func (t StepTrace) Len() int { return len(t.steps) }

// Steps returns a copy of the recorded steps in execution order.
func (t StepTrace) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Names lists step names in execution order.
func (t StepTrace) Names() []string {
	names := make([]string, 0, len(t.steps))
	for _, s := range t.steps {
		names = append(names, s.Name)
	}
	return names
}

// Get returns the first step with the given name.
func (t StepTrace) Get(name string) (Step, bool) {
	for _, s := range t.steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Clone returns an independent copy, so a returned trace cannot alias the run's.
func (t StepTrace) Clone() StepTrace {
	return StepTrace{steps: t.Steps()}
}

// MarshalJSON encodes the trace as an object keyed by step name, preserving order:
// {"fetch-post": {"status": "ok", "url": "..."}, ...}
func (t StepTrace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range t.steps {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		fields := make(map[string]any, len(s.Detail)+1)
		for k, v := range s.Detail {
			fields[k] = v
		}
		fields["status"] = s.Status
		val, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a trace, keeping the key order of the document.
func (t *StepTrace) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var steps []Step
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return err
		}
		status, _ := fields["status"].(string)
		delete(fields, "status")
		if len(fields) == 0 {
			fields = nil
		}
		steps = append(steps, Step{Name: name, Status: Status(status), Detail: fields})
	}
	t.steps = steps
	return nil
}
