package prediction

import (
	"context"
	"sync"

	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"
)

// fakeTransport is an in-memory jobTransport for executor and dispatcher
// tests. Behavior is injected per test through the submit and poll funcs.
type fakeTransport struct {
	mu      sync.Mutex
	submits []submittedJob
	polls   []JobHandle

	submit func(job submittedJob) JobHandle
	poll   func(handle JobHandle) (*JobOutcome, error)
}

type submittedJob struct {
	fn     Function
	binary bool
	y      *tensor.Matrix
	x      *tensor.Matrix
	theta  *tensor.Matrix
	opts   map[string]any
}

func (f *fakeTransport) Submit(_ context.Context, fn Function, binary bool, y, X, theta *tensor.Matrix, opts map[string]any) JobHandle {
	job := submittedJob{fn: fn, binary: binary, y: y, x: X, theta: theta, opts: opts}
	f.mu.Lock()
	f.submits = append(f.submits, job)
	f.mu.Unlock()
	if f.submit == nil {
		return JobHandle{ID: int64(len(f.submits)), Code: "code"}
	}
	return f.submit(job)
}

func (f *fakeTransport) Poll(_ context.Context, handle JobHandle) (*JobOutcome, error) {
	f.mu.Lock()
	f.polls = append(f.polls, handle)
	f.mu.Unlock()
	if !handle.Valid() {
		return nil, &InvalidHandleError{}
	}
	if f.poll == nil {
		return &JobOutcome{}, nil
	}
	return f.poll(handle)
}

func (f *fakeTransport) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func (f *fakeTransport) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.polls)
}

func mustMatrix(rows [][]float64) *tensor.Matrix {
	m, err := tensor.FromRows(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// mustFilled builds a rows-by-cols matrix holding i*1000+j at (i, j), so a
// decomposed variant can be traced back to its source column or row: a
// column-j slice reads j at (0, 0), a row-i slice reads i*1000 at (0, 0).
func mustFilled(rows, cols int) *tensor.Matrix {
	m, err := tensor.New(rows, cols)
	if err != nil {
		panic(err)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, float64(i*1000+j))
		}
	}
	return m
}
