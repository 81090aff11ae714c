package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/metric"
)

// dispatchResult is the raw output of an executor plus the wall-clock time
// the call took, for the receipt builder.
type dispatchResult struct {
	Kind     TaskKind
	Handle   JobHandle
	Outcome  *JobOutcome
	Batch    *BatchResult
	Duration time.Duration
}

// dispatch classifies the request and routes it to the executor registered
// for its task kind. The executor set is sealed; an unrouted kind means a
// bug, not bad input.
func (c *ClientV1) dispatch(ctx context.Context, fn Function, req *request, call *callOptions) (*dispatchResult, error) {
	kind, err := classifyTask(req.Y, req.X, req.Theta)
	if err != nil {
		return nil, err
	}
	if !call.wait && kind != TaskSingle {
		return nil, fmt.Errorf("deferred retrieval is only supported for single tasks, got %s", kind)
	}

	start := time.Now()
	defer func() {
		metric.Timing(metric.PredictionLatency, time.Since(start),
			metric.BuildTag(
				metric.NewTag(metric.TagFunction, fn.String()),
				metric.NewTag(metric.TagTaskKind, kind.String()),
			))
	}()

	result := &dispatchResult{Kind: kind}
	switch kind {
	case TaskSingle:
		outcome, handle, err := c.single.run(ctx, fn, call.binary, req, call.wait)
		if err != nil {
			return nil, err
		}
		result.Outcome = outcome
		result.Handle = handle
	case TaskMultiY, TaskMultiTheta:
		batch, err := c.batchExecutorFor(kind).run(ctx, fn, call.binary, req)
		if err != nil {
			return nil, err
		}
		result.Batch = batch
	default:
		return nil, &UnroutableTaskError{Kind: kind}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (c *ClientV1) batchExecutorFor(kind TaskKind) *batchExecutor {
	return &batchExecutor{
		transport:      c.transport,
		kind:           kind,
		maxConcurrency: int64(c.ClientConfigs.MaxConcurrency),
		batchTimeout:   time.Duration(c.ClientConfigs.BatchTimeoutMS) * time.Millisecond,
	}
}
