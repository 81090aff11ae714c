package prediction

import (
	"fmt"
	"sort"
	"time"
)

// InvalidShapeError reports malformed or ambiguous request shapes. It is
// raised before any network call and is never retried.
type InvalidShapeError struct {
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return "invalid input shapes: " + e.Reason
}

// InvalidHandleError reports an attempt to poll a handle whose submission
// already failed.
type InvalidHandleError struct{}

func (e *InvalidHandleError) Error() string {
	return "job handle has no id or code, submission did not succeed"
}

// JobFailedError reports that the service terminally failed a job.
type JobFailedError struct {
	Handle     JobHandle
	Diagnostic string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %d failed: %s", e.Handle.ID, e.Diagnostic)
}

// JobTimeoutError reports that polling exceeded its time budget without a
// terminal response. The remote job may still complete server-side.
type JobTimeoutError struct {
	Handle JobHandle
	Budget time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %d did not resolve within %s", e.Handle.ID, e.Budget)
}

// BatchPartialFailureError reports that one or more sub-jobs in a batch
// failed or timed out. Completed sub-results are retained so the caller can
// resubmit only the failed variants.
type BatchPartialFailureError struct {
	Succeeded map[int]*JobOutcome
	Failed    map[int]error
}

func (e *BatchPartialFailureError) Error() string {
	indices := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return fmt.Sprintf("%d of %d batch variants failed, failed indices: %v",
		len(e.Failed), len(e.Failed)+len(e.Succeeded), indices)
}

// UnroutableTaskError reports a task kind with no registered executor. All
// enumerated kinds are routed, so hitting this is a programming error.
type UnroutableTaskError struct {
	Kind TaskKind
}

func (e *UnroutableTaskError) Error() string {
	return fmt.Sprintf("no executor registered for task kind %q", e.Kind)
}
