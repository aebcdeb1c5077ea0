// Package cpu implements the host runtime and the dtype-dispatched compute
// kernels that run on it.
//
// Kernels operate on contiguous little-endian byte buffers and know nothing
// about tensors or storage. Every kernel is instantiated for float32,
// Float16 and BFloat16; half-precision operands are widened to float32 for
// arithmetic and only the final result is narrowed back.
package cpu

import (
	"github.com/born-ml/forward/internal/logger"
	"github.com/born-ml/forward/internal/tensor"
)

// Runtime serves tensor.CPU storage from ordinary host memory.
type Runtime struct {
	log logger.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// New creates a CPU runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{log: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the runtime name.
func (r *Runtime) Name() string {
	return "CPU"
}

// Device returns tensor.CPU.
func (r *Runtime) Device() tensor.Device {
	return tensor.CPU
}

// DeviceCount returns 1; the host is a single device.
func (r *Runtime) DeviceCount() int {
	return 1
}

// AllocateHost allocates zeroed host memory.
func (r *Runtime) AllocateHost(size int) (tensor.Memory, error) {
	if size < 0 {
		return nil, tensor.Errorf(tensor.ErrInvalidArgument, "allocate", "negative size %d", size)
	}
	return tensor.NewHostMemory(size), nil
}

// AllocateDevice allocates zeroed host memory for device 0.
func (r *Runtime) AllocateDevice(id, size int) (tensor.Memory, error) {
	if id != 0 {
		return nil, tensor.Errorf(tensor.ErrInvalidArgument, "allocate", "cpu device id %d out of range [0, 1)", id)
	}
	return r.AllocateHost(size)
}

// Memcpy copies n bytes between host memories. Every kind degenerates to a
// host copy; device-addressed memory from another runtime is rejected.
func (r *Runtime) Memcpy(dst tensor.Memory, dstOffset int, src tensor.Memory, srcOffset int, n int, kind tensor.MemcpyKind) error {
	d, s := dst.Host(), src.Host()
	if d == nil || s == nil {
		return tensor.Errorf(tensor.ErrUnsupported, "memcpy", "%s copy needs host memory on both sides", kind)
	}
	if n < 0 || dstOffset < 0 || srcOffset < 0 || dstOffset+n > len(d) || srcOffset+n > len(s) {
		return tensor.Errorf(tensor.ErrInvalidArgument, "memcpy",
			"%d bytes from offset %d (of %d) to offset %d (of %d)", n, srcOffset, len(s), dstOffset, len(d))
	}
	copy(d[dstOffset:dstOffset+n], s[srcOffset:srcOffset+n])
	return nil
}

// Synchronize is a no-op; host copies complete before Memcpy returns.
func (r *Runtime) Synchronize(int) error {
	return nil
}
