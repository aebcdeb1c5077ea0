// Package tensor provides the strided tensor view model over shared,
// device-resident storage.
package tensor

import (
	"fmt"
	"strings"

	"github.com/born-ml/forward/internal/half"
)

// Element is a constraint for the Go types that back tensor elements.
type Element interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~bool
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Float16
	BFloat16
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Bool
	Byte
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float64, Int64, Uint64:
		return 8
	case Float32, Int32, Uint32:
		return 4
	case Float16, BFloat16, Int16, Uint16:
		return 2
	case Int8, Uint8, Bool, Byte:
		return 1
	default:
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	case Float16:
		return "f16"
	case BFloat16:
		return "bf16"
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Uint8:
		return "u8"
	case Uint16:
		return "u16"
	case Uint32:
		return "u32"
	case Uint64:
		return "u64"
	case Bool:
		return "bool"
	case Byte:
		return "byte"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the data type is a floating point type.
func (dt DataType) IsFloat() bool {
	switch dt {
	case Float32, Float64, Float16, BFloat16:
		return true
	default:
		return false
	}
}

// IsHalf reports whether the data type is a 16-bit floating point type.
func (dt DataType) IsHalf() bool {
	return dt == Float16 || dt == BFloat16
}

// ParseDataType resolves a data type from its name. Both the short names
// returned by String and the long Go-style names are accepted.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "f32", "float32":
		return Float32, nil
	case "f64", "float64":
		return Float64, nil
	case "f16", "float16", "half":
		return Float16, nil
	case "bf16", "bfloat16":
		return BFloat16, nil
	case "i8", "int8":
		return Int8, nil
	case "i16", "int16":
		return Int16, nil
	case "i32", "int32":
		return Int32, nil
	case "i64", "int64":
		return Int64, nil
	case "u8", "uint8":
		return Uint8, nil
	case "u16", "uint16":
		return Uint16, nil
	case "u32", "uint32":
		return Uint32, nil
	case "u64", "uint64":
		return Uint64, nil
	case "bool":
		return Bool, nil
	case "byte":
		return Byte, nil
	default:
		return 0, Errorf(ErrInvalidArgument, "dtype", "unknown data type %q", name)
	}
}

// inferDataType infers DataType from a generic element type T.
func inferDataType[T Element](dummy T) (DataType, bool) {
	switch any(dummy).(type) {
	case float32:
		return Float32, true
	case float64:
		return Float64, true
	case half.Float16:
		return Float16, true
	case half.BFloat16:
		return BFloat16, true
	case int8:
		return Int8, true
	case int16:
		return Int16, true
	case int32:
		return Int32, true
	case int64:
		return Int64, true
	case uint8:
		return Uint8, true
	case uint16:
		return Uint16, true
	case uint32:
		return Uint32, true
	case uint64:
		return Uint64, true
	case bool:
		return Bool, true
	default:
		return 0, false
	}
}
