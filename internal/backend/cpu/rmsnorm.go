package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// RMSNorm normalizes each of the rows of in [rows, dim]:
//
//	out[r, i] = weight[i] * in[r, i] / sqrt(mean_j(in[r, j]^2) + eps)
func RMSNorm(out, in, weight []byte, dtype tensor.DataType, rows, dim int, eps float32) error {
	n := rows * dim
	switch dtype {
	case tensor.Float32:
		rmsNormTyped(as[float32](out, n), as[float32](in, n), as[float32](weight, dim), rows, dim, eps)
	case tensor.Float16:
		rmsNormTyped(as[half.Float16](out, n), as[half.Float16](in, n), as[half.Float16](weight, dim), rows, dim, eps)
	case tensor.BFloat16:
		rmsNormTyped(as[half.BFloat16](out, n), as[half.BFloat16](in, n), as[half.BFloat16](weight, dim), rows, dim, eps)
	default:
		return unsupported("rms_norm", dtype)
	}
	return nil
}

func rmsNormTyped[T Float](out, in, weight []T, rows, dim int, eps float32) {
	if dim == 0 {
		return
	}
	for r := range rows {
		x := in[r*dim : (r+1)*dim]
		y := out[r*dim : (r+1)*dim]

		var sumSq float32
		for _, v := range x {
			f := widen(v)
			sumSq += f * f
		}
		inv := 1 / math32.Sqrt(sumSq/float32(dim)+eps)

		for i, v := range x {
			y[i] = narrow[T](widen(weight[i]) * widen(v) * inv)
		}
	}
}
