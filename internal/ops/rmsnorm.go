package ops

import (
	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

// RMSNorm normalizes each row of in [rows, dim] by its root mean square and
// scales by weight [dim], writing to out [rows, dim].
func RMSNorm(out, in, weight *tensor.Tensor, eps float32) error {
	const op = "rms_norm"
	o, x, w := arg("out", out), arg("in", in), arg("weight", weight)

	if err := firstError(
		sameDevice(op, o, x, w),
		valueTypes(op, o, x, w),
		contiguous(op, o, x, w),
		rank(op, x, 2),
		rank(op, o, 2),
		rank(op, w, 1),
	); err != nil {
		return err
	}
	if eps < 0 {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "eps %g is negative", eps)
	}

	rows, d := in.Shape()[0], in.Shape()[1]
	if err := firstError(
		dim(op, o, 0, rows, "rows"),
		dim(op, o, 1, d, "dim"),
		dim(op, w, 0, d, "dim"),
	); err != nil {
		return err
	}

	if err := hostKernels(op, o, x, w); err != nil {
		return err
	}
	return cpu.RMSNorm(out.Data(), in.Data(), weight.Data(), in.DType(), rows, d, eps)
}
