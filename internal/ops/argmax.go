package ops

import (
	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

// Argmax writes the index of the largest element of the 1-D tensor vals
// into the single-element i64 tensor maxIdx and its value into maxVal.
// Ties resolve to the first occurrence. Empty vals leaves both outputs
// unchanged.
func Argmax(maxIdx, maxVal, vals *tensor.Tensor) error {
	const op = "argmax"
	idx, val, in := arg("max_idx", maxIdx), arg("max_val", maxVal), arg("vals", vals)

	if err := firstError(
		sameDevice(op, idx, val, in),
		indexType(op, idx),
		valueTypes(op, in, val),
		contiguous(op, idx, val, in),
		rank(op, in, 1),
	); err != nil {
		return err
	}
	if maxIdx.NumElements() != 1 || maxVal.NumElements() != 1 {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "max_idx %v and max_val %v must hold one element",
			maxIdx.Shape(), maxVal.Shape())
	}

	if err := hostKernels(op, idx, val, in); err != nil {
		return err
	}
	return cpu.Argmax(maxIdx.Data(), maxVal.Data(), vals.Data(), vals.DType(), vals.NumElements())
}
