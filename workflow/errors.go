package workflow

import (
	"errors"
	"fmt"

	"aioseo_meta_workflow/publisher"
)

// ErrorCode identifies why a run aborted.
type ErrorCode string

const (
	ErrCodeRecordFetchFailed        ErrorCode = "RECORD_FETCH_FAILED"
	ErrCodeFallbackGenerationFailed ErrorCode = "FALLBACK_GENERATION_FAILED"
	ErrCodeRecordUpdateFailed       ErrorCode = "RECORD_UPDATE_FAILED"
)

// Stage names the workflow state a run failed in.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageGeneration Stage = "generation"
	StageUpdate     Stage = "update"
)

var ErrInvalidRequest = errors.New("invalid workflow request")

// RunError is returned by Orchestrator.Run when a run aborts. Steps holds the trace
// up to and including the failed step.
type RunError struct {
	Stage Stage
	Code  ErrorCode
	Steps StepTrace
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("workflow %s failed: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Detail is the caller-facing description of the failure.
func (e *RunError) Detail() string {
	switch e.Stage {
	case StageFetch, StageUpdate:
		var recErr *publisher.RecordError
		if errors.As(e.Err, &recErr) && recErr.StatusCode != 0 {
			return fmt.Sprintf("WP %s failed (%d)", e.Stage, recErr.StatusCode)
		}
		return fmt.Sprintf("WP %s failed: %v", e.Stage, e.Err)
	case StageGeneration:
		return "Fallback agent failed"
	default:
		return e.Error()
	}
}
