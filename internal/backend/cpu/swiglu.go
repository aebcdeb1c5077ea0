package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// Gate saturation bounds for SwiGLU.
const (
	gateHigh = 20
	gateLow  = -20
)

// SwiGLU computes out[i] = up[i] * silu(gate[i]) over n elements, where
// silu(g) = g / (1 + exp(-g)). Gates above gateHigh pass through as g and
// gates below gateLow yield 0.
func SwiGLU(out, gate, up []byte, dtype tensor.DataType, n int) error {
	switch dtype {
	case tensor.Float32:
		swigluTyped(as[float32](out, n), as[float32](gate, n), as[float32](up, n))
	case tensor.Float16:
		swigluTyped(as[half.Float16](out, n), as[half.Float16](gate, n), as[half.Float16](up, n))
	case tensor.BFloat16:
		swigluTyped(as[half.BFloat16](out, n), as[half.BFloat16](gate, n), as[half.BFloat16](up, n))
	default:
		return unsupported("swiglu", dtype)
	}
	return nil
}

func swigluTyped[T Float](out, gate, up []T) {
	for i := range out {
		out[i] = narrow[T](widen(up[i]) * silu(widen(gate[i])))
	}
}

func silu(g float32) float32 {
	switch {
	case g > gateHigh:
		return g
	case g < gateLow:
		return 0
	default:
		return g / (1 + math32.Exp(-g))
	}
}
