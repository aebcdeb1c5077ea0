package ops

import (
	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

// SelfAttention computes causal grouped-query attention of q [qlen, nh, hd]
// over k and v [kvlen, nkvh, hd] into attnVal [qlen, nh, hd]. Scores are
// multiplied by scale before the softmax. nh must be a multiple of nkvh.
func SelfAttention(attnVal, q, k, v *tensor.Tensor, scale float32) error {
	const op = "self_attention"
	o, qa, ka, va := arg("attn_val", attnVal), arg("q", q), arg("k", k), arg("v", v)

	if err := firstError(
		sameDevice(op, o, qa, ka, va),
		valueTypes(op, o, qa, ka, va),
		contiguous(op, o, qa, ka, va),
		rank(op, qa, 3),
		rank(op, ka, 3),
		rank(op, va, 3),
		rank(op, o, 3),
	); err != nil {
		return err
	}

	qLen, nHeads, headDim := q.Shape()[0], q.Shape()[1], q.Shape()[2]
	kvLen, nKVHeads := k.Shape()[0], k.Shape()[1]
	if err := firstError(
		dim(op, o, 0, qLen, "qlen"),
		dim(op, o, 1, nHeads, "nh"),
		dim(op, o, 2, headDim, "hd"),
		dim(op, ka, 2, headDim, "hd"),
		dim(op, va, 0, kvLen, "kvlen"),
		dim(op, va, 1, nKVHeads, "nkvh"),
		dim(op, va, 2, headDim, "hd"),
	); err != nil {
		return err
	}
	if nKVHeads == 0 || nHeads%nKVHeads != 0 {
		return tensor.Errorf(tensor.ErrInvalidArgument, op,
			"query heads %d not divisible by key/value heads %d", nHeads, nKVHeads)
	}

	if err := hostKernels(op, o, qa, ka, va); err != nil {
		return err
	}
	return cpu.SelfAttention(attnVal.Data(), q.Data(), k.Data(), v.Data(), q.DType(),
		qLen, kvLen, nHeads, nKVHeads, headDim, scale)
}
