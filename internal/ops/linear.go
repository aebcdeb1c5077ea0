package ops

import (
	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

// Linear computes out = in @ weight^T + bias for in [batch, in_features],
// weight [out_features, in_features] and out [batch, out_features]. bias is
// [out_features] or nil.
func Linear(out, in, weight, bias *tensor.Tensor) error {
	const op = "linear"
	args := []operand{arg("out", out), arg("in", in), arg("weight", weight)}
	if bias != nil {
		args = append(args, arg("bias", bias))
	}
	o, x, w := args[0], args[1], args[2]

	if err := firstError(
		sameDevice(op, args...),
		valueTypes(op, args...),
		contiguous(op, args...),
		rank(op, x, 2),
		rank(op, w, 2),
		rank(op, o, 2),
	); err != nil {
		return err
	}

	batch, inFeatures, outFeatures := in.Shape()[0], in.Shape()[1], weight.Shape()[0]
	if err := firstError(
		dim(op, w, 1, inFeatures, "in_features"),
		dim(op, o, 0, batch, "batch"),
		dim(op, o, 1, outFeatures, "out_features"),
	); err != nil {
		return err
	}
	var biasData []byte
	if bias != nil {
		b := args[3]
		if err := firstError(rank(op, b, 1), dim(op, b, 0, outFeatures, "out_features")); err != nil {
			return err
		}
	}

	if err := hostKernels(op, args...); err != nil {
		return err
	}
	if bias != nil {
		biasData = bias.Data()
	}
	return cpu.Linear(out.Data(), in.Data(), weight.Data(), biasData, in.DType(), batch, inFeatures, outFeatures)
}
