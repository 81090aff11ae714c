package prediction

import "context"

// singleTaskExecutor runs one classified single task: submit, then poll
// unless the caller opted for deferred retrieval.
type singleTaskExecutor struct {
	transport jobTransport
}

// run returns the outcome when wait is true, otherwise the bare handle for
// later retrieval. Submission is never retried; a failed submission shows up
// as an invalid handle (deferred path) or an InvalidHandleError (polling
// path).
func (e *singleTaskExecutor) run(ctx context.Context, fn Function, binary bool, req *request, wait bool) (*JobOutcome, JobHandle, error) {
	handle := e.transport.Submit(ctx, fn, binary, req.Y, req.X, req.Theta, req.Options)
	if !wait {
		return nil, handle, nil
	}

	outcome, err := e.transport.Poll(ctx, handle)
	if err != nil {
		return nil, handle, err
	}
	return outcome, handle, nil
}
