// Package half provides the 16-bit floating point storage types used by
// tensors and the casts between them and float32.
package half

import (
	"math"

	"github.com/x448/float16"
)

// Float16 is an IEEE 754 binary16 value.
type Float16 = float16.Float16

// BFloat16 is a brain floating point value: the upper 16 bits of a float32.
type BFloat16 uint16

// Float16FromFloat32 rounds f to the nearest binary16 value.
func Float16FromFloat32(f float32) Float16 {
	return float16.Fromfloat32(f)
}

// Float16FromBits returns the binary16 value with the given bit pattern.
func Float16FromBits(bits uint16) Float16 {
	return float16.Frombits(bits)
}

// BFloat16FromFloat32 rounds f to the nearest bfloat16 value, ties to even.
// NaN stays NaN.
func BFloat16FromFloat32(f float32) BFloat16 {
	bits := math.Float32bits(f)
	if bits&0x7fffffff > 0x7f800000 {
		return BFloat16(bits>>16 | 0x0040)
	}
	rounding := uint32(0x7fff) + (bits>>16)&1
	return BFloat16((bits + rounding) >> 16)
}

// Float32 widens b to float32. The conversion is exact.
func (b BFloat16) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Bits returns the raw bit pattern.
func (b BFloat16) Bits() uint16 {
	return uint16(b)
}

// EncodeFloat16 narrows src into little-endian binary16 bytes in dst.
// dst must hold at least 2*len(src) bytes.
func EncodeFloat16(dst []byte, src []float32) {
	for i, f := range src {
		bits := float16.Fromfloat32(f).Bits()
		dst[2*i] = byte(bits)
		dst[2*i+1] = byte(bits >> 8)
	}
}

// DecodeFloat16 widens little-endian binary16 bytes into dst.
func DecodeFloat16(dst []float32, src []byte) {
	for i := range dst {
		bits := uint16(src[2*i]) | uint16(src[2*i+1])<<8
		dst[i] = float16.Frombits(bits).Float32()
	}
}

// EncodeBFloat16 narrows src into little-endian bfloat16 bytes in dst.
func EncodeBFloat16(dst []byte, src []float32) {
	for i, f := range src {
		bits := BFloat16FromFloat32(f)
		dst[2*i] = byte(bits)
		dst[2*i+1] = byte(bits >> 8)
	}
}

// DecodeBFloat16 widens little-endian bfloat16 bytes into dst.
func DecodeBFloat16(dst []float32, src []byte) {
	for i := range dst {
		bits := uint16(src[2*i]) | uint16(src[2*i+1])<<8
		dst[i] = BFloat16(bits).Float32()
	}
}
