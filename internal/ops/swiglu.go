package ops

import (
	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

// SwiGLU computes out = up * silu(gate) elementwise. All three tensors must
// have the same shape.
func SwiGLU(out, gate, up *tensor.Tensor) error {
	const op = "swiglu"
	o, g, u := arg("out", out), arg("gate", gate), arg("up", up)

	if err := firstError(
		sameDevice(op, o, g, u),
		valueTypes(op, o, g, u),
		contiguous(op, o, g, u),
	); err != nil {
		return err
	}
	if !gate.Shape().Equal(out.Shape()) || !up.Shape().Equal(out.Shape()) {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "shapes differ: out %v gate %v up %v",
			out.Shape(), gate.Shape(), up.Shape())
	}

	if err := hostKernels(op, o, g, u); err != nil {
		return err
	}
	return cpu.SwiGLU(out.Data(), gate.Data(), up.Data(), out.DType(), out.NumElements())
}
