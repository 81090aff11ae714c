package prediction

import "github.com/CambridgeSportsAnalytics/csa-prediction-engine/pkg/tensor"

// TaskKind is the routing classification of a prediction request, derived
// deterministically from the shapes of y, X and theta.
type TaskKind int

const (
	// TaskSingle is one dependent-variable column against one circumstance row.
	TaskSingle TaskKind = iota
	// TaskMultiY is multiple dependent-variable columns against one shared
	// circumstance row.
	TaskMultiY
	// TaskMultiTheta is one dependent-variable column against multiple
	// circumstance rows.
	TaskMultiTheta
)

func (k TaskKind) String() string {
	switch k {
	case TaskSingle:
		return "single"
	case TaskMultiY:
		return "multi_y"
	case TaskMultiTheta:
		return "multi_theta"
	}
	return "unknown"
}

// classifyTask determines the task kind for the given input shapes. Multi-y
// and multi-theta tasks cannot be requested simultaneously; the dimensions of
// y, X and theta must agree.
func classifyTask(y, X, theta *tensor.Matrix) (TaskKind, error) {
	if y.Cols() > 1 && theta.Rows() > 1 {
		return 0, &InvalidShapeError{
			Reason: "multi-y and multi-theta tasks cannot be combined, structure inputs for one batch axis only",
		}
	}
	if X.Rows() != y.Rows() {
		return 0, &InvalidShapeError{
			Reason: "row count mismatch between X and y",
		}
	}
	if X.Cols() != theta.Cols() {
		return 0, &InvalidShapeError{
			Reason: "column count mismatch between X and theta",
		}
	}
	if y.Cols() == 1 && theta.Rows() == 1 {
		return TaskSingle, nil
	}
	if y.Cols() > 1 {
		return TaskMultiY, nil
	}
	return TaskMultiTheta, nil
}
