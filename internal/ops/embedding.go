package ops

import (
	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

// Embedding gathers rows of weight [vocab, dim] selected by the 1-D i64
// index into out [len(index), dim]. Every index must lie in [0, vocab).
func Embedding(out, index, weight *tensor.Tensor) error {
	const op = "embedding"
	o, idx, w := arg("out", out), arg("index", index), arg("weight", weight)

	if err := firstError(
		sameDevice(op, o, idx, w),
		indexType(op, idx),
		valueTypes(op, o, w),
		contiguous(op, o, idx, w),
		rank(op, idx, 1),
		rank(op, w, 2),
		rank(op, o, 2),
	); err != nil {
		return err
	}

	n, vocab, embDim := index.Shape()[0], weight.Shape()[0], weight.Shape()[1]
	if err := firstError(
		dim(op, o, 0, n, "index length"),
		dim(op, o, 1, embDim, "embedding dim"),
	); err != nil {
		return err
	}

	if err := hostKernels(op, o, idx, w); err != nil {
		return err
	}
	return cpu.Embedding(out.Data(), index.Data(), weight.Data(), weight.DType(), n, vocab, embDim)
}
