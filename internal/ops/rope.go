package ops

import (
	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

// RoPE applies rotary position embedding to in [seq_len, n_heads, head_dim]
// using the i64 positions posIDs [seq_len] and base theta, writing to out of
// the same shape. head_dim must be even.
func RoPE(out, in, posIDs *tensor.Tensor, theta float32) error {
	const op = "rope"
	o, x, p := arg("out", out), arg("in", in), arg("pos_ids", posIDs)

	if err := firstError(
		sameDevice(op, o, x, p),
		indexType(op, p),
		valueTypes(op, o, x),
		contiguous(op, o, x, p),
		rank(op, x, 3),
		rank(op, o, 3),
		rank(op, p, 1),
	); err != nil {
		return err
	}

	seqLen, nHeads, headDim := in.Shape()[0], in.Shape()[1], in.Shape()[2]
	if err := firstError(
		dim(op, o, 0, seqLen, "seq_len"),
		dim(op, o, 1, nHeads, "n_heads"),
		dim(op, o, 2, headDim, "head_dim"),
		dim(op, p, 0, seqLen, "seq_len"),
	); err != nil {
		return err
	}
	if headDim%2 != 0 {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "head_dim %d must be even", headDim)
	}
	if theta <= 0 {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "theta %g must be positive", theta)
	}

	if err := hostKernels(op, o, x, p); err != nil {
		return err
	}
	return cpu.RoPE(out.Data(), in.Data(), posIDs.Data(), in.DType(), seqLen, nHeads, headDim, theta)
}
