// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/forward/internal/tensor"

// Type aliases for public API

// Tensor is a strided view over shared storage.
type Tensor = tensor.Tensor

// Storage is a reference-counted device allocation.
type Storage = tensor.Storage

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Meta is a tensor's dtype, shape and element strides.
type Meta = tensor.Meta

// Element is the constraint for Go types that back tensor elements.
type Element = tensor.Element

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32  DataType = tensor.Float32
	Float64  DataType = tensor.Float64
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
	Int8     DataType = tensor.Int8
	Int16    DataType = tensor.Int16
	Int32    DataType = tensor.Int32
	Int64    DataType = tensor.Int64
	Uint8    DataType = tensor.Uint8
	Uint16   DataType = tensor.Uint16
	Uint32   DataType = tensor.Uint32
	Uint64   DataType = tensor.Uint64
	Bool     DataType = tensor.Bool
	Byte     DataType = tensor.Byte
)

// Device represents the device type that owns a tensor's storage.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Error describes a failed tensor or operator call.
type Error = tensor.Error

// Error kinds.
var (
	ErrInvalidArgument = tensor.ErrInvalidArgument
	ErrUnsupported     = tensor.ErrUnsupported
)

// Create allocates a zeroed tensor with row-major strides.
func Create(ctx *Context, shape Shape, dtype DataType, device Device, deviceID int) (*Tensor, error) {
	return tensor.Create(ctx, shape, dtype, device, deviceID)
}

// FromFloat32 creates a tensor holding data converted to dtype.
func FromFloat32(ctx *Context, data []float32, shape Shape, dtype DataType, device Device, deviceID int) (*Tensor, error) {
	return tensor.FromFloat32(ctx, data, shape, dtype, device, deviceID)
}

// FromInt64 creates an Int64 tensor holding data.
func FromInt64(ctx *Context, data []int64, shape Shape, device Device, deviceID int) (*Tensor, error) {
	return tensor.FromInt64(ctx, data, shape, device, deviceID)
}

// Values returns the elements of a contiguous host tensor as a typed slice
// aliasing its storage.
func Values[T Element](t *Tensor) ([]T, error) {
	return tensor.Values[T](t)
}

// ParseDataType resolves a data type from its name.
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// ParseDevice resolves a device type from its name.
func ParseDevice(name string) (Device, error) {
	return tensor.ParseDevice(name)
}

// Runtime is the device runtime interface behind Storage.
type Runtime = tensor.Runtime

// Memory is one runtime allocation.
type Memory = tensor.Memory

// HostMemory is Memory backed by a Go byte slice.
type HostMemory = tensor.HostMemory

// MemcpyKind names the direction of a runtime memory copy.
type MemcpyKind = tensor.MemcpyKind

// Memcpy directions.
const (
	MemcpyH2H = tensor.MemcpyH2H
	MemcpyH2D = tensor.MemcpyH2D
	MemcpyD2H = tensor.MemcpyD2H
	MemcpyD2D = tensor.MemcpyD2D
)

// Context holds the registered runtimes and the active device.
type Context = tensor.Context

// ContextOption configures a Context.
type ContextOption = tensor.ContextOption

// NewContext returns a Context with the given runtimes registered. The
// active device starts as CPU:0.
func NewContext(opts ...ContextOption) *Context {
	return tensor.NewContext(opts...)
}

// WithRuntime registers rt.
func WithRuntime(rt Runtime) ContextOption {
	return tensor.WithRuntime(rt)
}
