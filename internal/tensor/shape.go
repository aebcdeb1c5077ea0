package tensor

import (
	"fmt"
	"strings"
)

// Shape represents the dimensions of a tensor. Extents may be zero.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1 // Scalar has 1 element
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that no extent is negative.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// String formats the shape as [d0 d1 ...].
func (s Shape) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, dim := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", dim)
	}
	b.WriteByte(']')
	return b.String()
}

// ComputeStrides calculates row-major strides for the shape, in elements.
// stride[i] is the product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Meta is the logical description of a tensor: element type, extents and
// per-dimension element strides.
type Meta struct {
	DType   DataType
	Shape   Shape
	Strides []int
}

func (m Meta) clone() Meta {
	return Meta{
		DType:   m.DType,
		Shape:   m.Shape.Clone(),
		Strides: append([]int(nil), m.Strides...),
	}
}

// span returns the half-open byte range [lo, hi) addressed by a view with
// this metadata at byte offset 0. Empty views address nothing.
func (m Meta) span() (lo, hi int) {
	size := m.DType.Size()
	for i, dim := range m.Shape {
		if dim == 0 {
			return 0, 0
		}
		step := (dim - 1) * m.Strides[i]
		if step < 0 {
			lo += step
		} else {
			hi += step
		}
	}
	return lo * size, hi*size + size
}
