package prediction

import (
	"context"
	"testing"

	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(ft *fakeTransport) *ClientV1 {
	return &ClientV1{
		ClientConfigs: &ClientConfig{
			Host:              "localhost",
			DeadlineExceedMS:  1000,
			PollIntervalMS:    1,
			PollMaxIntervalMS: 2,
			PollTimeoutMS:     1000,
			MaxConcurrency:    4,
			CallerId:          "tester",
		},
		transport: ft,
		single:    &singleTaskExecutor{transport: ft},
	}
}

func Test_Predict_SingleTask(t *testing.T) {
	ft := &fakeTransport{}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		return &JobOutcome{
			Yhat:    mustMatrix([][]float64{{2.5}}),
			Details: map[string]any{"n_relevant": 37},
		}, nil
	}
	c := newTestClient(ft)

	prediction, err := c.PredictPSR(context.Background(),
		mustFilled(100, 1), mustFilled(100, 5), mustFilled(1, 5),
		options.NewPredictionOptions())
	require.NoError(t, err)

	assert.Equal(t, TaskSingle, prediction.Kind)
	assert.Equal(t, 1, ft.submitCount())
	assert.Equal(t, FunctionPSR, ft.submits[0].fn)
	assert.False(t, ft.submits[0].binary)
	assert.Equal(t, 2.5, prediction.Yhat.At(0, 0))
	assert.Equal(t, 37, prediction.Details["n_relevant"])
	assert.Nil(t, prediction.Variants)
	assert.Nil(t, prediction.Receipt)
}

func Test_Predict_MultiY_FansOutPerColumn(t *testing.T) {
	ft := &fakeTransport{}
	ft.submit = func(job submittedJob) JobHandle {
		idx := int64(job.y.At(0, 0))
		return JobHandle{ID: idx + 1, Code: "code"}
	}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		return &JobOutcome{Yhat: mustMatrix([][]float64{{float64(handle.ID - 1)}})}, nil
	}
	c := newTestClient(ft)

	prediction, err := c.PredictMaxFit(context.Background(),
		mustFilled(100, 3), mustFilled(100, 5), mustFilled(1, 5),
		options.NewMaxFitOptions())
	require.NoError(t, err)

	assert.Equal(t, TaskMultiY, prediction.Kind)
	assert.Equal(t, 3, ft.submitCount())
	require.Len(t, prediction.Variants, 3)

	// One prediction column per y column, in input order.
	require.NotNil(t, prediction.Yhat)
	assert.Equal(t, 1, prediction.Yhat.Rows())
	assert.Equal(t, 3, prediction.Yhat.Cols())
	for j := 0; j < 3; j++ {
		assert.Equal(t, float64(j), prediction.Yhat.At(0, j))
	}
}

func Test_Predict_MultiTheta_FansOutPerRow(t *testing.T) {
	ft := &fakeTransport{}
	ft.submit = func(job submittedJob) JobHandle {
		idx := int64(job.theta.At(0, 0)) / 1000
		return JobHandle{ID: idx + 1, Code: "code"}
	}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		return &JobOutcome{Yhat: mustMatrix([][]float64{{float64(handle.ID - 1)}})}, nil
	}
	c := newTestClient(ft)

	prediction, err := c.PredictGrid(context.Background(),
		mustFilled(100, 1), mustFilled(100, 5), mustFilled(4, 5),
		options.NewGridOptions())
	require.NoError(t, err)

	assert.Equal(t, TaskMultiTheta, prediction.Kind)
	assert.Equal(t, 4, ft.submitCount())

	// One prediction row per theta row, in input order.
	require.NotNil(t, prediction.Yhat)
	assert.Equal(t, 4, prediction.Yhat.Rows())
	assert.Equal(t, 1, prediction.Yhat.Cols())
	for i := 0; i < 4; i++ {
		assert.Equal(t, float64(i), prediction.Yhat.At(i, 0))
	}
}

func Test_Predict_DualBatchAxesRejectedBeforeSubmission(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	_, err := c.PredictPSR(context.Background(),
		mustFilled(100, 3), mustFilled(100, 5), mustFilled(4, 5),
		options.NewPredictionOptions())

	var shapeErr *InvalidShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, 0, ft.submitCount())
}

func Test_Predict_NilInputsRejected(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	_, err := c.PredictPSR(context.Background(), nil, mustFilled(100, 5), mustFilled(1, 5),
		options.NewPredictionOptions())
	assert.Error(t, err)
}

func Test_Predict_WithoutWait_ReturnsHandleOnly(t *testing.T) {
	ft := &fakeTransport{}
	ft.submit = func(job submittedJob) JobHandle {
		return JobHandle{ID: 42, Code: "abc"}
	}
	c := newTestClient(ft)

	prediction, err := c.PredictPSR(context.Background(),
		mustFilled(100, 1), mustFilled(100, 5), mustFilled(1, 5),
		options.NewPredictionOptions(), WithoutWait())
	require.NoError(t, err)

	assert.Equal(t, JobHandle{ID: 42, Code: "abc"}, prediction.Handle)
	assert.Nil(t, prediction.Yhat)
	assert.Equal(t, 0, ft.pollCount())
}

func Test_Predict_WithoutWait_BatchRejected(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	_, err := c.PredictPSR(context.Background(),
		mustFilled(100, 3), mustFilled(100, 5), mustFilled(1, 5),
		options.NewPredictionOptions(), WithoutWait())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deferred retrieval")
	assert.Equal(t, 0, ft.submitCount())
}

func Test_Predict_WithBinary_FlagReachesTransport(t *testing.T) {
	ft := &fakeTransport{}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		return &JobOutcome{Yhat: mustMatrix([][]float64{{1}})}, nil
	}
	c := newTestClient(ft)

	_, err := c.PredictGridSingularity(context.Background(),
		mustFilled(100, 1), mustFilled(100, 5), mustFilled(1, 5),
		options.NewGridOptions(), WithBinary())
	require.NoError(t, err)

	require.Equal(t, 1, ft.submitCount())
	assert.Equal(t, FunctionGridSingularity, ft.submits[0].fn)
	assert.True(t, ft.submits[0].binary)
}

func Test_Predict_WithReceipt(t *testing.T) {
	ft := &fakeTransport{}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		return &JobOutcome{Yhat: mustMatrix([][]float64{{3.14}})}, nil
	}
	c := newTestClient(ft)

	y := mustFilled(100, 1)
	prediction, err := c.PredictPSR(context.Background(),
		y, mustFilled(100, 5), mustFilled(1, 5),
		options.NewPredictionOptions(), WithReceipt())
	require.NoError(t, err)

	require.NotNil(t, prediction.Receipt)
	assert.Equal(t, FunctionPSR, prediction.Receipt.Function)
	assert.Same(t, y, prediction.Receipt.Y)
	assert.Equal(t, 3.14, prediction.Receipt.Yhat.At(0, 0))
	assert.False(t, prediction.Receipt.CreatedAt.IsZero())
	assert.Contains(t, prediction.Receipt.Options, "eval_type")
}

func Test_Predict_WithReceipt_SkippedOnDeferredCall(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	prediction, err := c.PredictPSR(context.Background(),
		mustFilled(100, 1), mustFilled(100, 5), mustFilled(1, 5),
		options.NewPredictionOptions(), WithReceipt(), WithoutWait())
	require.NoError(t, err)
	assert.Nil(t, prediction.Receipt)
}

func Test_Results_DelegatesToPoll(t *testing.T) {
	ft := &fakeTransport{}
	ft.poll = func(handle JobHandle) (*JobOutcome, error) {
		return &JobOutcome{Yhat: mustMatrix([][]float64{{9}})}, nil
	}
	c := newTestClient(ft)

	outcome, err := c.Results(context.Background(), JobHandle{ID: 7, Code: "xyz"})
	require.NoError(t, err)
	assert.Equal(t, float64(9), outcome.Yhat.At(0, 0))
	require.Equal(t, 1, ft.pollCount())
	assert.Equal(t, JobHandle{ID: 7, Code: "xyz"}, ft.polls[0])
}

func Test_Results_InvalidHandle(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	_, err := c.Results(context.Background(), JobHandle{})

	var invalid *InvalidHandleError
	assert.ErrorAs(t, err, &invalid)
}

type fakeQuota struct {
	requested string
	figures   map[string]any
}

func (f *fakeQuota) Quota(_ context.Context, quotaType string) (map[string]any, error) {
	f.requested = quotaType
	return f.figures, nil
}

func Test_Quota(t *testing.T) {
	fq := &fakeQuota{figures: map[string]any{"used": 10.0, "remaining": 90.0}}
	c := newTestClient(&fakeTransport{})
	c.quota = fq

	figures, err := c.Quota(context.Background(), "summary")
	require.NoError(t, err)
	assert.Equal(t, "summary", fq.requested)
	assert.Equal(t, 90.0, figures["remaining"])

	_, err = c.Quota(context.Background(), "everything")
	assert.Error(t, err)
}

func Test_GetPredictionClient_UnknownVersion(t *testing.T) {
	assert.Nil(t, GetPredictionClient(2, nil))
}
