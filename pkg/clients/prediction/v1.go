package prediction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/auth"
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/httpclient"
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/options"
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"
	"github.com/rs/zerolog/log"
)

// PredictionClient is the public surface of the prediction service client.
//
// y is N-by-1 for single and multi-theta tasks or N-by-Q for multi-y tasks,
// X is N-by-K, theta is 1-by-K or Q-by-K for multi-theta tasks. Multi-y and
// multi-theta cannot be combined in one call.
type PredictionClient interface {
	// PredictPSR runs a relevance-based partial sample regression prediction.
	PredictPSR(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.PredictionOptions, callOpts ...CallOption) (*Prediction, error)
	// PredictMaxFit solves for the maximum adjusted-fit prediction.
	PredictMaxFit(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.MaxFitOptions, callOpts ...CallOption) (*Prediction, error)
	// PredictGrid evaluates all thresholds and variable combinations for a
	// composite prediction.
	PredictGrid(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.GridOptions, callOpts ...CallOption) (*Prediction, error)
	// PredictGridSingularity finds the singular optimal solution of a grid
	// evaluation.
	PredictGridSingularity(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.GridOptions, callOpts ...CallOption) (*Prediction, error)
	// Results resumes retrieval for a handle returned by a deferred call.
	Results(ctx context.Context, handle JobHandle) (*JobOutcome, error)
	// Quota returns quota figures; quotaType is one of "summary", "used",
	// "remaining" or "quota".
	Quota(ctx context.Context, quotaType string) (map[string]any, error)
}

// CallOption adjusts a single predict call.
type CallOption func(*callOptions)

type callOptions struct {
	binary      bool
	withReceipt bool
	wait        bool
}

func defaultCallOptions() *callOptions {
	return &callOptions{wait: true}
}

// WithBinary routes the call to the binary (categorical outcome) variant of
// the function family.
func WithBinary() CallOption {
	return func(o *callOptions) { o.binary = true }
}

// WithReceipt attaches a provenance receipt to the prediction.
func WithReceipt() CallOption {
	return func(o *callOptions) { o.withReceipt = true }
}

// WithoutWait submits the job and returns its handle without polling.
// Supported for single tasks only; results are retrieved later via Results.
func WithoutWait() CallOption {
	return func(o *callOptions) { o.wait = false }
}

type ClientV1 struct {
	ClientConfigs *ClientConfig
	HttpClient    *httpclient.HTTPClient
	transport     jobTransport
	quota         quotaTransport
	single        *singleTaskExecutor
}

var (
	client *ClientV1
	once   sync.Once
)

const V1Prefix = "CSA_PREDICTION_CLIENT_V1_"

func InitV1Client(configBytes []byte) PredictionClient {
	if client == nil {
		once.Do(func() {
			clientConfig, err := getClientConfigs(configBytes)
			if err != nil {
				log.Panic().Err(err).Msgf("Invalid prediction client configs: %#v", clientConfig)
			}

			apiKey, err := auth.ResolveAPIKey(clientConfig.ApiKey)
			if err != nil {
				log.Panic().Err(err).Msg("Prediction client credential resolution failed")
			}

			httpClient := httpclient.NewConnFromConfig(&httpclient.Config{
				Scheme:      clientConfig.Scheme,
				Host:        clientConfig.Host,
				Port:        clientConfig.Port,
				TimeoutInMs: clientConfig.DeadlineExceedMS,
			}, V1Prefix)

			transport := newHTTPJobTransport(httpClient, clientConfig, apiKey)
			client = &ClientV1{
				ClientConfigs: clientConfig,
				HttpClient:    httpClient,
				transport:     transport,
				quota:         transport,
				single:        &singleTaskExecutor{transport: transport},
			}
		})
	}
	return client
}

func (c *ClientV1) PredictPSR(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.PredictionOptions, callOpts ...CallOption) (*Prediction, error) {
	return c.predict(ctx, FunctionPSR, y, X, theta, opts.Values(), callOpts...)
}

func (c *ClientV1) PredictMaxFit(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.MaxFitOptions, callOpts ...CallOption) (*Prediction, error) {
	return c.predict(ctx, FunctionMaxFit, y, X, theta, opts.Values(), callOpts...)
}

func (c *ClientV1) PredictGrid(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.GridOptions, callOpts ...CallOption) (*Prediction, error) {
	return c.predict(ctx, FunctionGrid, y, X, theta, opts.Values(), callOpts...)
}

func (c *ClientV1) PredictGridSingularity(ctx context.Context, y, X, theta *tensor.Matrix, opts *options.GridOptions, callOpts ...CallOption) (*Prediction, error) {
	return c.predict(ctx, FunctionGridSingularity, y, X, theta, opts.Values(), callOpts...)
}

// predict is the shared submission routine behind all four function
// families.
func (c *ClientV1) predict(ctx context.Context, fn Function, y, X, theta *tensor.Matrix, optValues map[string]any, callOpts ...CallOption) (*Prediction, error) {
	if y == nil || X == nil || theta == nil {
		return nil, fmt.Errorf("prediction inputs y, X and theta cannot be nil")
	}

	call := defaultCallOptions()
	for _, opt := range callOpts {
		opt(call)
	}

	req := &request{Y: y, X: X, Theta: theta, Options: optValues}
	result, err := c.dispatch(ctx, fn, req, call)
	if err != nil {
		return nil, err
	}

	prediction := &Prediction{Kind: result.Kind, Handle: result.Handle}
	switch {
	case result.Outcome != nil:
		prediction.Yhat = result.Outcome.Yhat
		prediction.Details = result.Outcome.Details
	case result.Batch != nil:
		prediction.Yhat = result.Batch.Yhat
		prediction.Details = result.Batch.Details
		prediction.Variants = result.Batch.Outcomes
	}

	if call.withReceipt && call.wait {
		prediction.Receipt = buildReceipt(fn, req, prediction.Yhat, result.Duration)
	}
	return prediction, nil
}

func (c *ClientV1) Results(ctx context.Context, handle JobHandle) (*JobOutcome, error) {
	return c.transport.Poll(ctx, handle)
}

var quotaTypes = map[string]bool{
	"summary":   true,
	"used":      true,
	"remaining": true,
	"quota":     true,
}

func (c *ClientV1) Quota(ctx context.Context, quotaType string) (map[string]any, error) {
	if !quotaTypes[quotaType] {
		return nil, fmt.Errorf("invalid quota type %q, expected summary, used, remaining or quota", quotaType)
	}
	return c.quota.Quota(ctx, quotaType)
}

// PollBudget returns the configured per-job poll budget, for callers sizing
// their own contexts around deferred retrieval.
func (c *ClientV1) PollBudget() time.Duration {
	return time.Duration(c.ClientConfigs.PollTimeoutMS) * time.Millisecond
}
