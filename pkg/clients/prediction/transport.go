package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	httpHelper "github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/api/http"
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/httpclient"
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/metric"
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"
)

const (
	submitPath  = "/api/v1/jobs"
	resultsPath = "/api/v1/jobs/results"
	quotaPath   = "/api/v1/quota"

	callerIDHeader = "X-CSA-CALLER-ID"
)

// quotaTransport serves account quota lookups.
type quotaTransport interface {
	Quota(ctx context.Context, quotaType string) (map[string]any, error)
}

// jobTransport submits jobs to the scoring service and polls them to
// resolution. Implementations are safe for concurrent use; they hold no
// per-call state.
type jobTransport interface {
	// Submit serializes the inputs and posts one job. A failed submission is
	// reported through an invalid handle with a logged diagnostic, never an
	// error; treating an absent handle as fatal is the caller's decision.
	Submit(ctx context.Context, fn Function, binary bool, y, X, theta *tensor.Matrix, opts map[string]any) JobHandle
	// Poll blocks until the job reaches a terminal state or the poll budget
	// elapses. Invalid handles fail immediately without a network call.
	Poll(ctx context.Context, handle JobHandle) (*JobOutcome, error)
}

type httpJobTransport struct {
	httpClient      *httpclient.HTTPClient
	apiKey          string
	callerID        string
	pollInterval    time.Duration
	pollMaxInterval time.Duration
	pollTimeout     time.Duration
}

func newHTTPJobTransport(httpClient *httpclient.HTTPClient, conf *ClientConfig, apiKey string) *httpJobTransport {
	return &httpJobTransport{
		httpClient:      httpClient,
		apiKey:          apiKey,
		callerID:        conf.CallerId,
		pollInterval:    time.Duration(conf.PollIntervalMS) * time.Millisecond,
		pollMaxInterval: time.Duration(conf.PollMaxIntervalMS) * time.Millisecond,
		pollTimeout:     time.Duration(conf.PollTimeoutMS) * time.Millisecond,
	}
}

func (t *httpJobTransport) Submit(ctx context.Context, fn Function, binary bool, y, X, theta *tensor.Matrix, opts map[string]any) JobHandle {
	if binary {
		fn = fn.Binary()
	}

	// Option key-value pairs ride flattened next to the tensors.
	payload := map[string]any{
		"function": fn.String(),
		"y":        y.Nested(),
		"X":        X.Nested(),
		"theta":    theta.Nested(),
	}
	for key, value := range opts {
		payload[key] = value
	}

	metric.Incr(metric.JobSubmitCount, metric.BuildTag(metric.NewTag(metric.TagFunction, fn.String())))

	body, err := t.post(ctx, submitPath, payload)
	if err != nil {
		log.Warn().Err(err).Str("function", fn.String()).Msg("Job submission failed")
		return JobHandle{}
	}

	var resp submitResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Warn().Err(err).Str("function", fn.String()).Msg("Job submission response could not be decoded")
		return JobHandle{}
	}
	if resp.JobID == nil || resp.JobCode == nil {
		diagnostic := resp.Error
		if diagnostic == "" {
			diagnostic = resp.Message
		}
		log.Warn().Str("function", fn.String()).Str("diagnostic", diagnostic).Msg("Job submission rejected by server")
		return JobHandle{}
	}

	return JobHandle{ID: *resp.JobID, Code: *resp.JobCode}
}

func (t *httpJobTransport) Poll(ctx context.Context, handle JobHandle) (*JobOutcome, error) {
	if !handle.Valid() {
		return nil, &InvalidHandleError{}
	}

	start := time.Now()
	defer metric.TimingWithStart(metric.JobPollLatency, start, []string{})

	// Pending responses and transient transport errors are retried with
	// exponential backoff until the poll budget is spent. Terminal responses
	// (success or failure) pass through on the first sighting.
	retry := retrypolicy.Builder[*pollResponseBody]().
		HandleIf(func(resp *pollResponseBody, err error) bool {
			if err != nil {
				return true
			}
			return resp.Status == statusPending
		}).
		WithBackoff(t.pollInterval, t.pollMaxInterval).
		WithMaxDuration(t.pollTimeout).
		WithMaxRetries(-1).
		Build()

	resp, err := failsafe.NewExecutor[*pollResponseBody](retry).
		WithContext(ctx).
		Get(func() (*pollResponseBody, error) {
			return t.pollOnce(ctx, handle)
		})
	if err != nil {
		var exceeded retrypolicy.ExceededError
		if errors.As(err, &exceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &JobTimeoutError{Handle: handle, Budget: t.pollTimeout}
		}
		return nil, err
	}

	switch resp.Status {
	case statusSuccess:
		outcome := &JobOutcome{Details: resp.Details}
		if len(resp.Yhat) > 0 {
			yhat, err := tensor.FromRows(resp.Yhat)
			if err != nil {
				return nil, fmt.Errorf("malformed yhat in job %d response: %w", handle.ID, err)
			}
			outcome.Yhat = yhat
		}
		return outcome, nil
	case statusFailure:
		return nil, &JobFailedError{Handle: handle, Diagnostic: resp.Error}
	default:
		return nil, fmt.Errorf("unexpected job status %q for job %d", resp.Status, handle.ID)
	}
}

func (t *httpJobTransport) pollOnce(ctx context.Context, handle JobHandle) (*pollResponseBody, error) {
	metric.Incr(metric.JobPollCount, []string{})

	body, err := t.post(ctx, resultsPath, pollRequestBody{JobID: handle.ID, JobCode: handle.Code})
	if err != nil {
		return nil, err
	}

	var resp pollResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}
	return &resp, nil
}

// Quota fetches the quota figures for the given quota type.
func (t *httpJobTransport) Quota(ctx context.Context, quotaType string) (map[string]any, error) {
	body, err := t.post(ctx, quotaPath, map[string]any{"quota_type": quotaType, "api_key": t.apiKey})
	if err != nil {
		return nil, err
	}

	var figures map[string]any
	if err := json.Unmarshal(body, &figures); err != nil {
		return nil, fmt.Errorf("failed to decode quota response: %w", err)
	}
	return figures, nil
}

func (t *httpJobTransport) post(ctx context.Context, path string, payload any) ([]byte, error) {
	req, err := httpclient.NewHttpRequestBuilder().
		WithEndpoint(t.httpClient.Endpoint).
		WithPath(path).
		WithMethod(http.MethodPost).
		WithHeader(httpHelper.HeaderAPIKey, t.apiKey).
		WithHeader(callerIDHeader, t.callerID).
		WithBody(payload).
		WithContext(ctx).
		BuildContentTypeJson()
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !httpHelper.IsStandard2xx(resp.StatusCode) {
		return nil, fmt.Errorf("prediction service returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
