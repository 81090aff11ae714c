package prediction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/metric"
	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// batchExecutor decomposes a multi-y or multi-theta request into independent
// single-variant sub-jobs, dispatches them concurrently and reassembles the
// results in input order.
type batchExecutor struct {
	transport      jobTransport
	kind           TaskKind
	maxConcurrency int64
	// batchTimeout bounds the whole fan-out; zero disables it. Sub-jobs
	// still pending when it expires are reported as failed-by-timeout.
	batchTimeout time.Duration
}

type variantResult struct {
	index   int
	outcome *JobOutcome
	err     error
}

func (e *batchExecutor) run(ctx context.Context, fn Function, binary bool, req *request) (*BatchResult, error) {
	variants, err := e.decompose(req)
	if err != nil {
		return nil, err
	}

	if e.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.batchTimeout)
		defer cancel()
	}

	metric.Count(metric.BatchVariantCount, int64(len(variants)),
		metric.BuildTag(metric.NewTag(metric.TagTaskKind, e.kind.String())))

	sem := semaphore.NewWeighted(e.maxConcurrency)
	resultChan := make(chan variantResult, len(variants))

	wg := sync.WaitGroup{}
	for i, variant := range variants {
		wg.Add(1)
		go func(index int, variant *request) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Warn().
						Interface("panic", r).
						Int("variant_index", index).
						Msg("Panic occurred while processing batch variant")
					resultChan <- variantResult{index: index, err: fmt.Errorf("panic in variant processing: %v", r)}
				}
			}()

			outcome, err := e.runVariant(ctx, sem, fn, binary, variant)
			resultChan <- variantResult{index: index, outcome: outcome, err: err}
		}(i, variant)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	outcomes := make([]*JobOutcome, len(variants))
	failed := make(map[int]error)
	for result := range resultChan {
		if result.err != nil {
			log.Warn().Err(result.err).Int("variant_index", result.index).Msg("Batch variant failed")
			failed[result.index] = result.err
			continue
		}
		outcomes[result.index] = result.outcome
	}

	if len(failed) > 0 {
		succeeded := make(map[int]*JobOutcome)
		for i, outcome := range outcomes {
			if outcome != nil {
				succeeded[i] = outcome
			}
		}
		return nil, &BatchPartialFailureError{Succeeded: succeeded, Failed: failed}
	}

	return e.assemble(outcomes)
}

// runVariant holds a fan-out slot for the full submit-and-poll lifetime of
// one sub-job, capping simultaneous connections to the service.
func (e *batchExecutor) runVariant(ctx context.Context, sem *semaphore.Weighted, fn Function, binary bool, variant *request) (*JobOutcome, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, &JobTimeoutError{Budget: e.batchTimeout}
	}
	defer sem.Release(1)

	handle := e.transport.Submit(ctx, fn, binary, variant.Y, variant.X, variant.Theta, variant.Options)
	return e.transport.Poll(ctx, handle)
}

func (e *batchExecutor) decompose(req *request) ([]*request, error) {
	switch e.kind {
	case TaskMultiY:
		variants := make([]*request, 0, req.Y.Cols())
		for j := 0; j < req.Y.Cols(); j++ {
			column, err := req.Y.ColMatrix(j)
			if err != nil {
				return nil, err
			}
			variants = append(variants, &request{Y: column, X: req.X, Theta: req.Theta, Options: req.Options})
		}
		return variants, nil
	case TaskMultiTheta:
		variants := make([]*request, 0, req.Theta.Rows())
		for i := 0; i < req.Theta.Rows(); i++ {
			row, err := req.Theta.RowMatrix(i)
			if err != nil {
				return nil, err
			}
			variants = append(variants, &request{Y: req.Y, X: req.X, Theta: row, Options: req.Options})
		}
		return variants, nil
	}
	return nil, &UnroutableTaskError{Kind: e.kind}
}

// assemble stacks variant predictions along the batch axis and merges the
// detail maps under per-variant keys.
func (e *batchExecutor) assemble(outcomes []*JobOutcome) (*BatchResult, error) {
	yhats := make([]*tensor.Matrix, 0, len(outcomes))
	details := make(map[string]any, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.Yhat != nil {
			yhats = append(yhats, outcome.Yhat)
		}
		details[fmt.Sprintf("variant_%d", i)] = outcome.Details
	}

	result := &BatchResult{Outcomes: outcomes, Details: details}
	if len(yhats) == len(outcomes) {
		var err error
		if e.kind == TaskMultiY {
			result.Yhat, err = tensor.HStack(yhats...)
		} else {
			result.Yhat, err = tensor.VStack(yhats...)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stack batch predictions: %w", err)
		}
	}
	return result, nil
}
