//go:build !windows

package webgpu

import (
	"github.com/born-ml/forward/internal/logger"
	"github.com/born-ml/forward/internal/tensor"
)

// Runtime is unavailable on this platform. Every method reports
// tensor.ErrUnsupported.
type Runtime struct{}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger is accepted for API parity and ignored.
func WithLogger(logger.Logger) Option {
	return func(*Runtime) {}
}

// New always fails on this platform.
func New(...Option) (*Runtime, error) {
	return nil, errUnavailable("new")
}

// IsAvailable reports false on this platform.
func IsAvailable() bool { return false }

// Close is a no-op.
func (r *Runtime) Close() {}

// Name returns the runtime name.
func (r *Runtime) Name() string { return "WebGPU" }

// AdapterName returns "".
func (r *Runtime) AdapterName() string { return "" }

// Device returns tensor.WebGPU.
func (r *Runtime) Device() tensor.Device { return tensor.WebGPU }

// DeviceCount returns 0.
func (r *Runtime) DeviceCount() int { return 0 }

// AllocateHost fails on this platform.
func (r *Runtime) AllocateHost(int) (tensor.Memory, error) {
	return nil, errUnavailable("allocate")
}

// AllocateDevice fails on this platform.
func (r *Runtime) AllocateDevice(int, int) (tensor.Memory, error) {
	return nil, errUnavailable("allocate")
}

// Memcpy fails on this platform.
func (r *Runtime) Memcpy(tensor.Memory, int, tensor.Memory, int, int, tensor.MemcpyKind) error {
	return errUnavailable("memcpy")
}

// Synchronize fails on this platform.
func (r *Runtime) Synchronize(int) error {
	return errUnavailable("synchronize")
}

func errUnavailable(op string) error {
	return tensor.Errorf(tensor.ErrUnsupported, op, "webgpu runtime requires a windows build")
}
