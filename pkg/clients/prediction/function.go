package prediction

// Function identifies the server-side prediction model family.
type Function string

const (
	FunctionPSR             Function = "psr"
	FunctionMaxFit          Function = "maxfit"
	FunctionGrid            Function = "grid"
	FunctionGridSingularity Function = "grid_singularity"

	FunctionPSRBinary             Function = "psr_binary"
	FunctionMaxFitBinary          Function = "maxfit_binary"
	FunctionGridBinary            Function = "grid_binary"
	FunctionGridSingularityBinary Function = "grid_singularity_binary"
)

// Mapping from base function families to their binary equivalents.
var binaryFunctionMap = map[Function]Function{
	FunctionPSR:             FunctionPSRBinary,
	FunctionMaxFit:          FunctionMaxFitBinary,
	FunctionGrid:            FunctionGridBinary,
	FunctionGridSingularity: FunctionGridSingularityBinary,
}

// Binary returns the binary counterpart of the function family. Families
// without a binary counterpart are returned unchanged.
func (f Function) Binary() Function {
	if binary, ok := binaryFunctionMap[f]; ok {
		return binary
	}
	return f
}

func (f Function) String() string {
	return string(f)
}
