package cpu

import (
	"unsafe"

	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// Float is the set of storage types the compute kernels are instantiated for.
type Float interface {
	float32 | half.Float16 | half.BFloat16
}

// widen converts a storage value to float32.
func widen[T Float](v T) float32 {
	switch x := any(v).(type) {
	case float32:
		return x
	case half.Float16:
		return x.Float32()
	case half.BFloat16:
		return x.Float32()
	}
	panic("unreachable")
}

// narrow converts a float32 result to the storage type.
func narrow[T Float](f float32) T {
	var out T
	switch p := any(&out).(type) {
	case *float32:
		*p = f
	case *half.Float16:
		*p = half.Float16FromFloat32(f)
	case *half.BFloat16:
		*p = half.BFloat16FromFloat32(f)
	}
	return out
}

// as reinterprets the first n elements of b as []T.
//
// WARNING: b must hold at least n elements of T; no copy is made.
func as[T any](b []byte, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// unsupported is returned by every kernel for dtypes outside {f32, f16, bf16}.
func unsupported(op string, dtype tensor.DataType) error {
	return tensor.Errorf(tensor.ErrUnsupported, op, "dtype %s not in {f32, f16, bf16}", dtype)
}
