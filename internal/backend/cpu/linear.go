package cpu

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// Linear computes out[b, o] = sum_i in[b, i] * weight[o, i] + bias[o] for
// in [batch, inFeatures], weight [outFeatures, inFeatures] and out
// [batch, outFeatures]. A nil bias adds nothing.
func Linear(out, in, weight, bias []byte, dtype tensor.DataType, batch, inFeatures, outFeatures int) error {
	switch dtype {
	case tensor.Float32:
		linearTyped(as[float32](out, batch*outFeatures), as[float32](in, batch*inFeatures),
			as[float32](weight, outFeatures*inFeatures), biasOf[float32](bias, outFeatures),
			batch, inFeatures, outFeatures)
	case tensor.Float16:
		linearTyped(as[half.Float16](out, batch*outFeatures), as[half.Float16](in, batch*inFeatures),
			as[half.Float16](weight, outFeatures*inFeatures), biasOf[half.Float16](bias, outFeatures),
			batch, inFeatures, outFeatures)
	case tensor.BFloat16:
		linearTyped(as[half.BFloat16](out, batch*outFeatures), as[half.BFloat16](in, batch*inFeatures),
			as[half.BFloat16](weight, outFeatures*inFeatures), biasOf[half.BFloat16](bias, outFeatures),
			batch, inFeatures, outFeatures)
	default:
		return unsupported("linear", dtype)
	}
	return nil
}

func biasOf[T Float](b []byte, n int) []T {
	if b == nil {
		return nil
	}
	return as[T](b, n)
}

func linearTyped[T Float](out, in, weight, bias []T, batch, inFeatures, outFeatures int) {
	if batch == 0 || outFeatures == 0 {
		return
	}

	// float32 runs in place; half types are widened into scratch buffers.
	acc, native := any(out).([]float32)
	if !native {
		acc = make([]float32, batch*outFeatures)
	}

	if inFeatures > 0 {
		a, w := widenAll(in), widenAll(weight)
		blas32.Gemm(blas.NoTrans, blas.Trans, 1,
			blas32.General{Rows: batch, Cols: inFeatures, Stride: inFeatures, Data: a},
			blas32.General{Rows: outFeatures, Cols: inFeatures, Stride: inFeatures, Data: w},
			0,
			blas32.General{Rows: batch, Cols: outFeatures, Stride: outFeatures, Data: acc})
	} else {
		clear(acc)
	}

	if bias != nil {
		for b := range batch {
			row := acc[b*outFeatures : (b+1)*outFeatures]
			for o := range row {
				row[o] += widen(bias[o])
			}
		}
	}

	if !native {
		for i, v := range acc {
			out[i] = narrow[T](v)
		}
	}
}

// widenAll returns s as float32, aliasing it when T is already float32.
func widenAll[T Float](s []T) []float32 {
	if f, ok := any(s).([]float32); ok {
		return f
	}
	f := make([]float32, len(s))
	for i, v := range s {
		f[i] = widen(v)
	}
	return f
}
