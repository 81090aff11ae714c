// Package options holds the parameter bags attached to prediction jobs.
// The client forwards these values to the scoring service verbatim; it never
// interprets them. Matrix-valued parameters are converted to nested lists at
// serialization time by the transport.
package options

import "github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"

const (
	defaultStepsize       = 0.20
	defaultEvalType       = "relevance"
	defaultGridEvalType   = "all"
	defaultThresholdRange = 1.0
)

// PredictionOptions configures a plain relevance prediction.
type PredictionOptions struct {
	// Threshold evaluates relevant observations. Nil means the server sweeps
	// thresholds from 0 to 0.90 in 0.10 increments.
	Threshold          *float64
	IsThresholdPercent bool
	MostEval           bool
	EvalType           string
	CovInv             *tensor.Matrix
}

// NewPredictionOptions returns prediction options with server defaults.
func NewPredictionOptions() *PredictionOptions {
	return &PredictionOptions{
		IsThresholdPercent: true,
		MostEval:           true,
		EvalType:           defaultEvalType,
	}
}

// Values flattens the options into wire key-value pairs.
func (o *PredictionOptions) Values() map[string]any {
	values := map[string]any{
		"is_threshold_percent": o.IsThresholdPercent,
		"most_eval":            o.MostEval,
		"eval_type":            o.EvalType,
	}
	if o.Threshold != nil {
		values["threshold"] = *o.Threshold
	}
	if o.CovInv != nil {
		values["cov_inv"] = o.CovInv.Nested()
	}
	return values
}

// MaxFitOptions configures a maximum adjusted-fit prediction.
type MaxFitOptions struct {
	ThresholdMin float64
	ThresholdMax float64
	Stepsize     float64
	MostEval     bool
	EvalType     string
	CovInv       *tensor.Matrix
}

// NewMaxFitOptions returns maxfit options with server defaults.
func NewMaxFitOptions() *MaxFitOptions {
	return &MaxFitOptions{
		ThresholdMax: defaultThresholdRange,
		Stepsize:     defaultStepsize,
		MostEval:     true,
		EvalType:     defaultEvalType,
	}
}

// Values flattens the options into wire key-value pairs.
func (o *MaxFitOptions) Values() map[string]any {
	values := map[string]any{
		"threshold_range": []float64{o.ThresholdMin, o.ThresholdMax},
		"stepsize":        o.Stepsize,
		"most_eval":       o.MostEval,
		"eval_type":       o.EvalType,
	}
	if o.CovInv != nil {
		values["cov_inv"] = o.CovInv.Nested()
	}
	return values
}

// GridOptions configures grid and grid-singularity predictions.
type GridOptions struct {
	ThresholdMin float64
	ThresholdMax float64
	Stepsize     float64
	MostEval     bool
	EvalType     string
	// K is the lower bound on the number of variables included in the grid
	// search. Nil leaves the optimization unconstrained.
	K          *int
	ReturnGrid bool
}

// NewGridOptions returns grid options with server defaults.
func NewGridOptions() *GridOptions {
	return &GridOptions{
		ThresholdMax: defaultThresholdRange,
		Stepsize:     defaultStepsize,
		MostEval:     true,
		EvalType:     defaultGridEvalType,
	}
}

// Values flattens the options into wire key-value pairs.
func (o *GridOptions) Values() map[string]any {
	values := map[string]any{
		"threshold_range": []float64{o.ThresholdMin, o.ThresholdMax},
		"stepsize":        o.Stepsize,
		"most_eval":       o.MostEval,
		"eval_type":       o.EvalType,
		"return_grid":     o.ReturnGrid,
	}
	if o.K != nil {
		values["k"] = *o.K
	}
	return values
}
