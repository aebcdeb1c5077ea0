package tensor

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/born-ml/forward/internal/half"
)

// FromFloat32 creates a tensor of the given shape and dtype on the device
// and fills it with data converted to dtype.
//
// Example:
//
//	ctx := tensor.NewContext(tensor.WithRuntime(cpu.New()))
//	t, err := tensor.FromFloat32(ctx, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.BFloat16, tensor.CPU, 0)
func FromFloat32(ctx *Context, data []float32, shape Shape, dtype DataType, device Device, deviceID int) (*Tensor, error) {
	if len(data) != shape.NumElements() {
		return nil, Errorf(ErrInvalidArgument, "from_float32", "%d values for shape %v", len(data), shape)
	}
	t, err := Create(ctx, shape, dtype, device, deviceID)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, len(data)*dtype.Size())
	for i, v := range data {
		putElement(buf, dtype, i, float64(v))
	}
	if err := t.Load(buf); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// FromInt64 creates an Int64 tensor holding data, typically token ids or
// argmax results.
func FromInt64(ctx *Context, data []int64, shape Shape, device Device, deviceID int) (*Tensor, error) {
	if len(data) != shape.NumElements() {
		return nil, Errorf(ErrInvalidArgument, "from_int64", "%d values for shape %v", len(data), shape)
	}
	t, err := Create(ctx, shape, Int64, device, deviceID)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, len(data)*8)
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	if err := t.Load(buf); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// Values returns the elements of a contiguous host tensor as a typed slice
// aliasing its storage. T must match the tensor's dtype.
//
// WARNING: The slice shares memory with every view of the same storage.
func Values[T Element](t *Tensor) ([]T, error) {
	var dummy T
	dtype, ok := inferDataType(dummy)
	if !ok || (dtype != t.meta.DType && !(dtype == Uint8 && t.meta.DType == Byte)) {
		return nil, Errorf(ErrInvalidArgument, "values", "tensor has dtype %s", t.meta.DType)
	}
	if !t.IsContiguous() {
		return nil, Errorf(ErrInvalidArgument, "values", "tensor with strides %v is not contiguous", t.meta.Strides)
	}
	data := t.Data()
	if data == nil {
		return nil, Errorf(ErrInvalidArgument, "values", "%s storage is not host addressable", t.Device())
	}
	n := t.NumElements()
	if n == 0 {
		return []T{}, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n), nil
}

// Float32s returns a host copy of the elements converted to float32.
func (t *Tensor) Float32s() ([]float32, error) {
	b, err := t.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]float32, t.NumElements())
	for i := range out {
		out[i] = float32(element(b, t.meta.DType, i))
	}
	return out, nil
}

// Float64s returns a host copy of the elements converted to float64.
func (t *Tensor) Float64s() ([]float64, error) {
	b, err := t.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.NumElements())
	for i := range out {
		out[i] = element(b, t.meta.DType, i)
	}
	return out, nil
}

// element decodes the i-th little-endian element of b as float64.
func element(b []byte, dtype DataType, i int) float64 {
	le := binary.LittleEndian
	switch dtype {
	case Float32:
		return float64(math.Float32frombits(le.Uint32(b[i*4:])))
	case Float64:
		return math.Float64frombits(le.Uint64(b[i*8:]))
	case Float16:
		return float64(half.Float16FromBits(le.Uint16(b[i*2:])).Float32())
	case BFloat16:
		return float64(half.BFloat16(le.Uint16(b[i*2:])).Float32())
	case Int8:
		return float64(int8(b[i]))
	case Int16:
		return float64(int16(le.Uint16(b[i*2:])))
	case Int32:
		return float64(int32(le.Uint32(b[i*4:])))
	case Int64:
		return float64(int64(le.Uint64(b[i*8:])))
	case Uint8, Byte:
		return float64(b[i])
	case Uint16:
		return float64(le.Uint16(b[i*2:]))
	case Uint32:
		return float64(le.Uint32(b[i*4:]))
	case Uint64:
		return float64(le.Uint64(b[i*8:]))
	case Bool:
		if b[i] != 0 {
			return 1
		}
		return 0
	default:
		panic("tensor: unknown data type " + dtype.String())
	}
}

// putElement encodes v as the i-th little-endian element of b.
func putElement(b []byte, dtype DataType, i int, v float64) {
	le := binary.LittleEndian
	switch dtype {
	case Float32:
		le.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	case Float64:
		le.PutUint64(b[i*8:], math.Float64bits(v))
	case Float16:
		le.PutUint16(b[i*2:], half.Float16FromFloat32(float32(v)).Bits())
	case BFloat16:
		le.PutUint16(b[i*2:], half.BFloat16FromFloat32(float32(v)).Bits())
	case Int8:
		b[i] = byte(int8(v))
	case Int16:
		le.PutUint16(b[i*2:], uint16(int16(v)))
	case Int32:
		le.PutUint32(b[i*4:], uint32(int32(v)))
	case Int64:
		le.PutUint64(b[i*8:], uint64(int64(v)))
	case Uint8, Byte:
		b[i] = byte(v)
	case Uint16:
		le.PutUint16(b[i*2:], uint16(v))
	case Uint32:
		le.PutUint32(b[i*4:], uint32(v))
	case Uint64:
		le.PutUint64(b[i*8:], uint64(v))
	case Bool:
		b[i] = 0
		if v != 0 {
			b[i] = 1
		}
	default:
		panic("tensor: unknown data type " + dtype.String())
	}
}
