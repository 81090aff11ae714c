package prediction

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BatchExecutor_MultiY_OrderedReassembly(t *testing.T) {
	ft := &fakeTransport{}
	// The submitted y column carries its source index at (0, 0); the handle
	// id encodes it so poll can answer per variant.
	ft.submit = func(job submittedJob) JobHandle {
		idx := int64(job.y.At(0, 0))
		return JobHandle{ID: idx + 1, Code: "code"}
	}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		idx := handle.ID - 1
		// Later variants finish first to prove reassembly is by index, not
		// by completion order.
		time.Sleep(time.Duration(3-idx) * 15 * time.Millisecond)
		return &JobOutcome{
			Yhat:    mustMatrix([][]float64{{float64(idx * 10)}}),
			Details: map[string]any{"variant": idx},
		}, nil
	}

	executor := &batchExecutor{transport: ft, kind: TaskMultiY, maxConcurrency: 3}
	result, err := executor.run(context.Background(), FunctionPSR, false, &request{
		Y:     mustFilled(10, 3),
		X:     mustFilled(10, 5),
		Theta: mustFilled(1, 5),
	})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)

	for i, outcome := range result.Outcomes {
		assert.Equal(t, float64(i*10), outcome.Yhat.At(0, 0))
		assert.Equal(t, int64(i), outcome.Details["variant"])
	}

	require.NotNil(t, result.Yhat)
	assert.Equal(t, 1, result.Yhat.Rows())
	assert.Equal(t, 3, result.Yhat.Cols())
	for j := 0; j < 3; j++ {
		assert.Equal(t, float64(j*10), result.Yhat.At(0, j))
	}
	assert.Contains(t, result.Details, "variant_0")
	assert.Contains(t, result.Details, "variant_2")
}

func Test_BatchExecutor_MultiTheta_RowStacking(t *testing.T) {
	ft := &fakeTransport{}
	ft.submit = func(job submittedJob) JobHandle {
		idx := int64(job.theta.At(0, 0)) / 1000
		return JobHandle{ID: idx + 1, Code: "code"}
	}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		idx := handle.ID - 1
		return &JobOutcome{Yhat: mustMatrix([][]float64{{float64(idx)}})}, nil
	}

	executor := &batchExecutor{transport: ft, kind: TaskMultiTheta, maxConcurrency: 2}
	result, err := executor.run(context.Background(), FunctionGrid, false, &request{
		Y:     mustFilled(10, 1),
		X:     mustFilled(10, 5),
		Theta: mustFilled(4, 5),
	})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, 4, ft.submitCount())

	require.NotNil(t, result.Yhat)
	assert.Equal(t, 4, result.Yhat.Rows())
	assert.Equal(t, 1, result.Yhat.Cols())
	for i := 0; i < 4; i++ {
		assert.Equal(t, float64(i), result.Yhat.At(i, 0))
	}
}

func Test_BatchExecutor_PartialFailure(t *testing.T) {
	ft := &fakeTransport{}
	ft.submit = func(job submittedJob) JobHandle {
		idx := int64(job.y.At(0, 0))
		return JobHandle{ID: idx + 1, Code: "code"}
	}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		if handle.ID == 2 {
			return nil, &JobFailedError{Handle: handle, Diagnostic: "singular matrix"}
		}
		return &JobOutcome{Yhat: mustMatrix([][]float64{{1}})}, nil
	}

	executor := &batchExecutor{transport: ft, kind: TaskMultiY, maxConcurrency: 3}
	result, err := executor.run(context.Background(), FunctionPSR, false, &request{
		Y:     mustFilled(10, 3),
		X:     mustFilled(10, 5),
		Theta: mustFilled(1, 5),
	})
	assert.Nil(t, result)

	var partial *BatchPartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Len(t, partial.Succeeded, 2)
	assert.Contains(t, partial.Succeeded, 0)
	assert.Contains(t, partial.Succeeded, 2)
	require.Len(t, partial.Failed, 1)

	var failed *JobFailedError
	require.ErrorAs(t, partial.Failed[1], &failed)
	assert.Equal(t, "singular matrix", failed.Diagnostic)
	assert.Equal(t, "1 of 3 batch variants failed, failed indices: [1]", partial.Error())
}

func Test_BatchExecutor_SubmitFailureReportedPerVariant(t *testing.T) {
	ft := &fakeTransport{}
	ft.submit = func(job submittedJob) JobHandle {
		idx := int64(job.y.At(0, 0))
		if idx == 1 {
			// Rejected submission surfaces as an invalid handle.
			return JobHandle{}
		}
		return JobHandle{ID: idx + 1, Code: "code"}
	}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		return &JobOutcome{Yhat: mustMatrix([][]float64{{1}})}, nil
	}

	executor := &batchExecutor{transport: ft, kind: TaskMultiY, maxConcurrency: 3}
	_, err := executor.run(context.Background(), FunctionPSR, false, &request{
		Y:     mustFilled(10, 3),
		X:     mustFilled(10, 5),
		Theta: mustFilled(1, 5),
	})

	var partial *BatchPartialFailureError
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Failed, 1)

	var invalid *InvalidHandleError
	assert.ErrorAs(t, partial.Failed[1], &invalid)
}

func Test_BatchExecutor_ConcurrencyCap(t *testing.T) {
	var inFlight, peak atomic.Int64
	ft := &fakeTransport{}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return &JobOutcome{Yhat: mustMatrix([][]float64{{1}})}, nil
	}

	executor := &batchExecutor{transport: ft, kind: TaskMultiY, maxConcurrency: 2}
	_, err := executor.run(context.Background(), FunctionPSR, false, &request{
		Y:     mustFilled(10, 6),
		X:     mustFilled(10, 5),
		Theta: mustFilled(1, 5),
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func Test_BatchExecutor_BatchTimeoutBoundsFanOut(t *testing.T) {
	ft := &fakeTransport{}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		time.Sleep(100 * time.Millisecond)
		return &JobOutcome{Yhat: mustMatrix([][]float64{{1}})}, nil
	}

	// One slot and a budget shorter than two sequential polls: whichever
	// variant holds the slot completes, the rest fail acquiring one.
	executor := &batchExecutor{
		transport:      ft,
		kind:           TaskMultiY,
		maxConcurrency: 1,
		batchTimeout:   30 * time.Millisecond,
	}
	_, err := executor.run(context.Background(), FunctionPSR, false, &request{
		Y:     mustFilled(10, 3),
		X:     mustFilled(10, 5),
		Theta: mustFilled(1, 5),
	})

	var partial *BatchPartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Len(t, partial.Succeeded, 1)
	assert.Len(t, partial.Failed, 2)
	for _, cause := range partial.Failed {
		var timeout *JobTimeoutError
		assert.True(t, errors.As(cause, &timeout))
	}
}

func Test_BatchExecutor_UnroutableKind(t *testing.T) {
	executor := &batchExecutor{transport: &fakeTransport{}, kind: TaskSingle, maxConcurrency: 1}
	_, err := executor.run(context.Background(), FunctionPSR, false, &request{
		Y:     mustFilled(10, 1),
		X:     mustFilled(10, 5),
		Theta: mustFilled(1, 5),
	})

	var unroutable *UnroutableTaskError
	require.ErrorAs(t, err, &unroutable)
	assert.Equal(t, TaskSingle, unroutable.Kind)
}
