package prediction

import (
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"
)

// JobHandle is the client-held reference to a remote asynchronous
// computation. Both fields are absent together only when submission failed.
type JobHandle struct {
	ID   int64  `json:"job_id"`
	Code string `json:"job_code"`
}

// Valid reports whether the handle refers to an accepted submission.
func (h JobHandle) Valid() bool {
	return h.ID != 0 && h.Code != ""
}

// JobOutcome is the resolved result of a single job.
type JobOutcome struct {
	Yhat    *tensor.Matrix
	Details map[string]any
}

// BatchResult is the ordered outcome of a decomposed multi-variant request.
// Slot i always corresponds to input variant i regardless of completion
// order.
type BatchResult struct {
	Outcomes []*JobOutcome
	// Yhat is the variant outcomes stacked along the batch axis: columns for
	// multi-y, rows for multi-theta.
	Yhat *tensor.Matrix
	// Details holds each variant's detail map under a variant_<i> key.
	Details map[string]any
}

// Prediction is the unified response of the public predict operations.
type Prediction struct {
	Kind TaskKind
	// Handle is populated on deferred (submit-only) calls; Yhat and Details
	// stay nil until the caller retrieves results.
	Handle  JobHandle
	Yhat    *tensor.Matrix
	Details map[string]any
	// Variants carries per-variant outcomes for batched tasks, nil for
	// single tasks.
	Variants []*JobOutcome
	Receipt  *Receipt
}

// request bundles the caller inputs handed to the executors. The core never
// mutates the caller's matrices.
type request struct {
	Y       *tensor.Matrix
	X       *tensor.Matrix
	Theta   *tensor.Matrix
	Options map[string]any
}

// Wire payloads.

type submitResponseBody struct {
	JobID   *int64  `json:"job_id"`
	JobCode *string `json:"job_code"`
	Error   string  `json:"error,omitempty"`
	Message string  `json:"message,omitempty"`
}

type pollRequestBody struct {
	JobID   int64  `json:"job_id"`
	JobCode string `json:"job_code"`
}

type pollResponseBody struct {
	Status  string         `json:"status"`
	Yhat    [][]float64    `json:"yhat,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

const (
	statusPending = "pending"
	statusSuccess = "success"
	statusFailure = "failure"
)
