package prediction

import (
	"time"

	"github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"
)

// Receipt is a read-only provenance snapshot of a completed prediction call,
// built only when the caller asks for one.
type Receipt struct {
	Function  Function
	Y         *tensor.Matrix
	X         *tensor.Matrix
	Theta     *tensor.Matrix
	Options   map[string]any
	Yhat      *tensor.Matrix
	Duration  time.Duration
	CreatedAt time.Time
}

func buildReceipt(fn Function, req *request, yhat *tensor.Matrix, duration time.Duration) *Receipt {
	return &Receipt{
		Function:  fn,
		Y:         req.Y,
		X:         req.X,
		Theta:     req.Theta,
		Options:   req.Options,
		Yhat:      yhat,
		Duration:  duration,
		CreatedAt: time.Now(),
	}
}
