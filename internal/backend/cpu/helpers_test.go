package cpu

import (
	"encoding/binary"
	"math"

	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// encode packs float32 values as dtype.
func encode(dtype tensor.DataType, vals ...float32) []byte {
	b := make([]byte, len(vals)*dtype.Size())
	switch dtype {
	case tensor.Float32:
		for i, v := range vals {
			binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
		}
	case tensor.Float16:
		half.EncodeFloat16(b, vals)
	case tensor.BFloat16:
		half.EncodeBFloat16(b, vals)
	default:
		panic("encode: unsupported dtype " + dtype.String())
	}
	return b
}

// decode unpacks dtype bytes to float32.
func decode(dtype tensor.DataType, b []byte) []float32 {
	out := make([]float32, len(b)/dtype.Size())
	switch dtype {
	case tensor.Float32:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
	case tensor.Float16:
		half.DecodeFloat16(out, b)
	case tensor.BFloat16:
		half.DecodeBFloat16(out, b)
	default:
		panic("decode: unsupported dtype " + dtype.String())
	}
	return out
}

func int64s(vals ...int64) []byte {
	b := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(b[i*8:], uint64(v))
	}
	return b
}

var floatTypes = []tensor.DataType{tensor.Float32, tensor.Float16, tensor.BFloat16}

// tolerance is the comparison slack for results stored as dtype.
func tolerance(dtype tensor.DataType) float64 {
	switch dtype {
	case tensor.Float16:
		return 2e-2
	case tensor.BFloat16:
		return 6e-2
	default:
		return 1e-5
	}
}
