package tensor

import (
	"fmt"
	"sync/atomic"
)

// Tensor is a strided view over shared Storage. It never owns raw memory
// directly: it holds a reference to the Storage plus a byte offset and the
// logical shape/stride description. Views created by Permute, Slice and
// View share the Storage of their source.
//
// Tensors are not safe for concurrent mutation; callers serialize writes
// to aliasing views.
type Tensor struct {
	meta    Meta
	storage *Storage
	offset  int // Byte offset of element [0, 0, ...] within the storage

	dropped atomic.Bool
}

// Create allocates storage for shape and dtype on the given device and
// wraps it in a tensor with row-major strides and offset 0.
//
// A CPU tensor requested while the Context's active device is not the CPU
// is backed by host staging memory from the active device's runtime.
func Create(ctx *Context, shape Shape, dtype DataType, device Device, deviceID int) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, Errorf(ErrInvalidArgument, "create", "%v", err)
	}
	if dtype < Float32 || dtype > Byte {
		return nil, Errorf(ErrInvalidArgument, "create", "unknown data type %d", int(dtype))
	}

	storage, err := ctx.allocate(shape.NumElements()*dtype.Size(), device, deviceID)
	if err != nil {
		return nil, err
	}

	return &Tensor{
		meta: Meta{
			DType:   dtype,
			Shape:   shape.Clone(),
			Strides: shape.ComputeStrides(),
		},
		storage: storage,
	}, nil
}

// allocate resolves the runtime for device and allocates size bytes.
func (c *Context) allocate(size int, device Device, deviceID int) (*Storage, error) {
	active, _ := c.Device()
	if device == CPU && active != CPU {
		rt, err := c.Runtime(active)
		if err != nil {
			return nil, err
		}
		mem, err := rt.AllocateHost(size)
		if err != nil {
			return nil, fmt.Errorf("allocate %d host bytes via %s: %w", size, active, err)
		}
		c.log.Debug("host staging storage allocated", "bytes", size, "runtime", active)
		return newStorage(c, rt, mem, CPU, 0, true), nil
	}

	rt, err := c.Runtime(device)
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= rt.DeviceCount() {
		return nil, Errorf(ErrInvalidArgument, "create", "%s device id %d out of range [0, %d)", device, deviceID, rt.DeviceCount())
	}
	mem, err := rt.AllocateDevice(deviceID, size)
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes on %s:%d: %w", size, device, deviceID, err)
	}
	c.log.Debug("storage allocated", "bytes", size, "device", device, "id", deviceID)
	return newStorage(c, rt, mem, device, deviceID, false), nil
}

// Meta returns a copy of the tensor metadata.
func (t *Tensor) Meta() Meta { return t.meta.clone() }

// DType returns the tensor's data type.
func (t *Tensor) DType() DataType { return t.meta.DType }

// Shape returns the tensor's shape. The result must not be modified.
func (t *Tensor) Shape() Shape { return t.meta.Shape }

// Strides returns the per-dimension element strides. The result must not be modified.
func (t *Tensor) Strides() []int { return t.meta.Strides }

// NDim returns the rank.
func (t *Tensor) NDim() int { return len(t.meta.Shape) }

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int { return t.meta.Shape.NumElements() }

// ElementSize returns the byte size of one element.
func (t *Tensor) ElementSize() int { return t.meta.DType.Size() }

// Offset returns the byte offset of the first element within the storage.
func (t *Tensor) Offset() int { return t.offset }

// Storage returns the shared storage.
func (t *Tensor) Storage() *Storage { return t.storage }

// Device returns the device type of the storage.
func (t *Tensor) Device() Device { return t.storage.device }

// DeviceID returns the device id of the storage.
func (t *Tensor) DeviceID() int { return t.storage.deviceID }

// Data returns the host-addressable bytes starting at the tensor's offset,
// or nil if the storage lives in device memory or has been released.
//
// WARNING: Direct access to underlying memory shared by every aliasing view.
func (t *Tensor) Data() []byte {
	host := t.storage.Host()
	if host == nil {
		return nil
	}
	if t.offset > len(host) {
		return host[len(host):]
	}
	return host[t.offset:]
}

// IsContiguous reports whether the strides equal the row-major strides
// implied by the shape. Rank-0 tensors and tensors with at most one element
// are always contiguous.
func (t *Tensor) IsContiguous() bool {
	if len(t.meta.Shape) == 0 || t.NumElements() <= 1 {
		return true
	}
	expected := t.meta.Shape.ComputeStrides()
	for i, s := range t.meta.Strides {
		if s != expected[i] {
			return false
		}
	}
	return true
}

// Release drops this view's reference to the storage. Calling Release more
// than once on the same tensor has no further effect.
func (t *Tensor) Release() {
	if t.dropped.CompareAndSwap(false, true) {
		t.storage.release()
	}
}

// String returns a short human-readable description.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s:%d", t.meta.DType, t.meta.Shape, t.Device(), t.DeviceID())
}

// memory returns the live allocation or an error if it was released.
func (t *Tensor) memory(op string) (Memory, error) {
	if t.storage.released() {
		return nil, Errorf(ErrInvalidArgument, op, "storage %s already released", t.storage.id)
	}
	return t.storage.mem, nil
}
