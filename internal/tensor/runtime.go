package tensor

import (
	"slices"
	"strings"
	"sync"

	"github.com/born-ml/forward/internal/logger"
)

// Device represents the device type that owns a tensor's storage.
type Device int

// Supported device types.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// ParseDevice resolves a device type from its case-insensitive name.
func ParseDevice(name string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cpu":
		return CPU, nil
	case "cuda", "nvidia":
		return CUDA, nil
	case "vulkan":
		return Vulkan, nil
	case "metal":
		return Metal, nil
	case "webgpu", "wgpu":
		return WebGPU, nil
	default:
		return 0, Errorf(ErrInvalidArgument, "device", "unknown device %q", name)
	}
}

// MemcpyKind names the direction of a runtime memory copy.
type MemcpyKind int

// Copy directions.
const (
	MemcpyH2H MemcpyKind = iota
	MemcpyH2D
	MemcpyD2H
	MemcpyD2D
)

// String returns the conventional short name of the copy direction.
func (k MemcpyKind) String() string {
	switch k {
	case MemcpyH2H:
		return "H2H"
	case MemcpyH2D:
		return "H2D"
	case MemcpyD2H:
		return "D2H"
	case MemcpyD2D:
		return "D2D"
	default:
		return "unknown"
	}
}

// Memory is a single allocation owned by a runtime.
type Memory interface {
	// Size returns the capacity in bytes.
	Size() int
	// Host returns the host-addressable bytes, or nil for device memory.
	Host() []byte
	// Release frees the allocation. It is called once, by the owning Storage.
	Release()
}

// HostMemory is plain host memory. It also wraps caller-owned byte slices
// passed as copy sources or destinations.
type HostMemory []byte

// NewHostMemory allocates zeroed host memory.
func NewHostMemory(size int) HostMemory {
	return make(HostMemory, size)
}

// Size returns the capacity in bytes.
func (m HostMemory) Size() int { return len(m) }

// Host returns the underlying bytes.
func (m HostMemory) Host() []byte { return m }

// Release is a no-op; host memory is reclaimed by the garbage collector.
func (m HostMemory) Release() {}

// Runtime allocates memory and moves bytes for one device type.
//
// Implementations:
//   - CPU: host memory (internal/backend/cpu)
//   - WebGPU: GPU buffers (internal/backend/webgpu)
type Runtime interface {
	// Device returns the device type served by this runtime.
	Device() Device
	// DeviceCount returns the number of devices of this type.
	DeviceCount() int
	// AllocateHost allocates host memory suitable for staging transfers.
	AllocateHost(size int) (Memory, error)
	// AllocateDevice allocates memory on device id.
	AllocateDevice(id, size int) (Memory, error)
	// Memcpy copies n bytes from src[srcOffset:] to dst[dstOffset:].
	Memcpy(dst Memory, dstOffset int, src Memory, srcOffset int, n int, kind MemcpyKind) error
	// Synchronize blocks until all work queued on device id has completed.
	Synchronize(id int) error
}

// Context is an explicit handle to the registered runtimes and the active
// device. It replaces process-wide device state: each goroutine that needs a
// different active device should use its own Context. A Context is safe for
// concurrent use.
type Context struct {
	mu       sync.RWMutex
	runtimes map[Device]Runtime
	device   Device
	deviceID int
	log      logger.Logger
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithRuntime registers rt on the new Context.
func WithRuntime(rt Runtime) ContextOption {
	return func(c *Context) {
		c.runtimes[rt.Device()] = rt
	}
}

// WithLogger sets the Context logger.
func WithLogger(log logger.Logger) ContextOption {
	return func(c *Context) {
		c.log = log
	}
}

// NewContext creates a Context. The active device starts as CPU:0.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		runtimes: make(map[Device]Runtime),
		device:   CPU,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	return c
}

// Register adds or replaces the runtime for rt.Device().
func (c *Context) Register(rt Runtime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runtimes[rt.Device()] = rt
	c.log.Debug("runtime registered", "device", rt.Device(), "count", rt.DeviceCount())
}

// Runtime returns the runtime registered for device d.
func (c *Context) Runtime(d Device) (Runtime, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rt, ok := c.runtimes[d]
	if !ok {
		return nil, Errorf(ErrUnsupported, "runtime", "no runtime registered for device %s", d)
	}
	return rt, nil
}

// SetDevice makes device d with the given id active on this Context.
func (c *Context) SetDevice(d Device, id int) error {
	rt, err := c.Runtime(d)
	if err != nil {
		return err
	}
	if id < 0 || id >= rt.DeviceCount() {
		return Errorf(ErrInvalidArgument, "set_device", "%s device id %d out of range [0, %d)", d, id, rt.DeviceCount())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.device, c.deviceID = d, id
	c.log.Debug("active device changed", "device", d, "id", id)
	return nil
}

// Device returns the active device type and id.
func (c *Context) Device() (Device, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.device, c.deviceID
}

// Devices returns the registered device types in ascending order.
func (c *Context) Devices() []Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	devices := make([]Device, 0, len(c.runtimes))
	for d := range c.runtimes {
		devices = append(devices, d)
	}
	slices.Sort(devices)
	return devices
}

// Logger returns the Context logger.
func (c *Context) Logger() logger.Logger {
	return c.log
}
