package cpu

import (
	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// Argmax writes the index (int64) and value of the largest of the n
// elements in vals. Ties keep the first occurrence. n == 0 leaves maxIdx
// and maxVal untouched.
func Argmax(maxIdx, maxVal, vals []byte, dtype tensor.DataType, n int) error {
	switch dtype {
	case tensor.Float32:
		argmaxTyped(maxIdx, as[float32](maxVal, 1), as[float32](vals, n))
	case tensor.Float16:
		argmaxTyped(maxIdx, as[half.Float16](maxVal, 1), as[half.Float16](vals, n))
	case tensor.BFloat16:
		argmaxTyped(maxIdx, as[half.BFloat16](maxVal, 1), as[half.BFloat16](vals, n))
	default:
		return unsupported("argmax", dtype)
	}
	return nil
}

func argmaxTyped[T Float](maxIdx []byte, maxVal, vals []T) {
	if len(vals) == 0 {
		return
	}
	best, at := widen(vals[0]), 0
	for i := 1; i < len(vals); i++ {
		if v := widen(vals[i]); v > best {
			best, at = v, i
		}
	}
	as[int64](maxIdx, 1)[0] = int64(at)
	maxVal[0] = vals[at]
}
