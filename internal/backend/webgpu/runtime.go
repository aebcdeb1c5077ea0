//go:build windows

package webgpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/forward/internal/logger"
	"github.com/born-ml/forward/internal/tensor"
)

// Runtime allocates tensor storage in WebGPU buffers on the default adapter.
type Runtime struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo *wgpu.AdapterInfoGo
	log         logger.Logger

	// Serializes queue submissions and staging-buffer mapping.
	mu sync.Mutex

	memoryStats struct {
		totalAllocatedBytes uint64
		peakMemoryBytes     uint64
		activeBytes         uint64
		activeBuffers       int64
		mu                  sync.Mutex
	}
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// New creates a WebGPU runtime on the high-performance adapter.
// Returns an error if WebGPU is not available or initialization fails.
func New(opts ...Option) (rt *Runtime, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			rt = nil
			err = tensor.Errorf(tensor.ErrUnsupported, "webgpu", "native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, tensor.Errorf(tensor.ErrUnsupported, "webgpu", "failed to create instance: %v", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	adapterInfo, infoErr := adapter.GetInfo()
	if infoErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get adapter info: %w", infoErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	rt = &Runtime{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: adapterInfo,
		log:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.log.Info("webgpu runtime ready", "adapter", adapterInfo.Device, "vendor", adapterInfo.Vendor)
	return rt, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// Close releases the device, adapter and instance. Storage allocated by the
// runtime must be released first.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queue != nil {
		r.queue.Release()
		r.queue = nil
	}
	if r.device != nil {
		r.device.Release()
		r.device = nil
	}
	if r.adapter != nil {
		r.adapter.Release()
		r.adapter = nil
	}
	if r.instance != nil {
		r.instance.Release()
		r.instance = nil
	}
}

// Name returns the runtime name.
func (r *Runtime) Name() string {
	return "WebGPU"
}

// AdapterName returns the adapter's device description.
func (r *Runtime) AdapterName() string {
	if r.adapterInfo == nil {
		return ""
	}
	return r.adapterInfo.Device
}

// Device returns tensor.WebGPU.
func (r *Runtime) Device() tensor.Device {
	return tensor.WebGPU
}

// DeviceCount returns 1; only the default adapter is opened.
func (r *Runtime) DeviceCount() int {
	return 1
}

// AllocateHost allocates host staging memory.
func (r *Runtime) AllocateHost(size int) (tensor.Memory, error) {
	if size < 0 {
		return nil, tensor.Errorf(tensor.ErrInvalidArgument, "allocate", "negative size %d", size)
	}
	return tensor.NewHostMemory(size), nil
}

// AllocateDevice allocates a storage buffer of at least size bytes.
func (r *Runtime) AllocateDevice(id, size int) (tensor.Memory, error) {
	if id != 0 {
		return nil, tensor.Errorf(tensor.ErrInvalidArgument, "allocate", "webgpu device id %d out of range [0, 1)", id)
	}
	if size < 0 {
		return nil, tensor.Errorf(tensor.ErrInvalidArgument, "allocate", "negative size %d", size)
	}

	//nolint:gosec // G115: bufferSize returns a positive int
	allocSize := uint64(bufferSize(size))
	r.mu.Lock()
	buf := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  allocSize,
	})
	r.mu.Unlock()
	if buf == nil {
		return nil, fmt.Errorf("webgpu: failed to allocate %d bytes", allocSize)
	}

	r.trackAllocation(allocSize)
	return &bufferMemory{rt: r, buf: buf, size: size, allocSize: allocSize}, nil
}

// Synchronize waits for queued copies. Every Memcpy already blocks on its
// staging map, so only an empty submission round-trip is needed.
func (r *Runtime) Synchronize(int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	encoder := r.device.CreateCommandEncoder(nil)
	r.queue.Submit(encoder.Finish(nil))
	return nil
}

// bufferMemory is a tensor.Memory living in a WebGPU storage buffer.
type bufferMemory struct {
	rt        *Runtime
	buf       *wgpu.Buffer
	size      int
	allocSize uint64
}

func (m *bufferMemory) Size() int    { return m.size }
func (m *bufferMemory) Host() []byte { return nil }

func (m *bufferMemory) Release() {
	if m.buf == nil {
		return
	}
	m.buf.Release()
	m.buf = nil
	m.rt.trackRelease(m.allocSize)
}

// MemoryStats represents GPU memory usage statistics.
type MemoryStats struct {
	// Total bytes allocated since runtime creation
	TotalAllocatedBytes uint64
	// Peak live bytes
	PeakMemoryBytes uint64
	// Live bytes
	ActiveBytes uint64
	// Number of live buffers
	ActiveBuffers int64
}

// MemoryStats returns current GPU memory usage statistics.
func (r *Runtime) MemoryStats() MemoryStats {
	r.memoryStats.mu.Lock()
	defer r.memoryStats.mu.Unlock()
	return MemoryStats{
		TotalAllocatedBytes: r.memoryStats.totalAllocatedBytes,
		PeakMemoryBytes:     r.memoryStats.peakMemoryBytes,
		ActiveBytes:         r.memoryStats.activeBytes,
		ActiveBuffers:       r.memoryStats.activeBuffers,
	}
}

func (r *Runtime) trackAllocation(size uint64) {
	r.memoryStats.mu.Lock()
	defer r.memoryStats.mu.Unlock()
	r.memoryStats.totalAllocatedBytes += size
	r.memoryStats.activeBytes += size
	r.memoryStats.activeBuffers++
	r.memoryStats.peakMemoryBytes = max(r.memoryStats.peakMemoryBytes, r.memoryStats.activeBytes)
}

func (r *Runtime) trackRelease(size uint64) {
	r.memoryStats.mu.Lock()
	defer r.memoryStats.mu.Unlock()
	r.memoryStats.activeBytes -= size
	r.memoryStats.activeBuffers--
}

// mapped returns the mapped range of buf as a byte slice.
func mapped(buf *wgpu.Buffer, size uint64) []byte {
	ptr := buf.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	return unsafe.Slice((*byte)(ptr), size)
}
