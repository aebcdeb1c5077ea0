package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// RoPE applies rotary position embedding to in [seqLen, nHeads, headDim].
// For pair index i in [0, headDim/2) at position p = posIDs[s]:
//
//	angle = p / theta^(2i/headDim)
//	(a, b) = (x[i], x[i+headDim/2])
//	x'[i] = a*cos(angle) - b*sin(angle)
//	x'[i+headDim/2] = b*cos(angle) + a*sin(angle)
//
// headDim must be even. out may alias in.
func RoPE(out, in, posIDs []byte, dtype tensor.DataType, seqLen, nHeads, headDim int, theta float32) error {
	n := seqLen * nHeads * headDim
	pos := as[int64](posIDs, seqLen)
	switch dtype {
	case tensor.Float32:
		ropeTyped(as[float32](out, n), as[float32](in, n), pos, nHeads, headDim, theta)
	case tensor.Float16:
		ropeTyped(as[half.Float16](out, n), as[half.Float16](in, n), pos, nHeads, headDim, theta)
	case tensor.BFloat16:
		ropeTyped(as[half.BFloat16](out, n), as[half.BFloat16](in, n), pos, nHeads, headDim, theta)
	default:
		return unsupported("rope", dtype)
	}
	return nil
}

func ropeTyped[T Float](out, in []T, pos []int64, nHeads, headDim int, theta float32) {
	halfDim := headDim / 2
	if halfDim == 0 {
		return
	}

	// Frequencies depend only on the pair index.
	invFreq := make([]float32, halfDim)
	for i := range invFreq {
		invFreq[i] = 1 / math32.Pow(theta, float32(2*i)/float32(headDim))
	}

	for s, p := range pos {
		position := float32(p)
		for h := range nHeads {
			base := (s*nHeads + h) * headDim
			x := in[base : base+headDim]
			y := out[base : base+headDim]
			for i, f := range invFreq {
				sin, cos := math32.Sincos(position * f)
				a, b := widen(x[i]), widen(x[i+halfDim])
				y[i] = narrow[T](a*cos - b*sin)
				y[i+halfDim] = narrow[T](b*cos + a*sin)
			}
		}
	}
}
