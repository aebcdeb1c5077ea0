package tensor

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Storage is a reference-counted, fixed-size allocation shared by every
// tensor view that aliases it. The memory is released when the last
// reference is dropped.
type Storage struct {
	id       uuid.UUID
	mem      Memory
	size     int
	device   Device
	deviceID int
	pinned   bool // host staging memory handed out by a non-CPU runtime
	runtime  Runtime
	ctx      *Context

	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newStorage wraps mem with refCount = 1.
func newStorage(ctx *Context, rt Runtime, mem Memory, device Device, deviceID int, pinned bool) *Storage {
	s := &Storage{
		id:       uuid.New(),
		mem:      mem,
		size:     mem.Size(),
		device:   device,
		deviceID: deviceID,
		pinned:   pinned,
		runtime:  rt,
		ctx:      ctx,
	}
	s.refCount.Store(1)
	return s
}

// ID returns the storage identity. Views of the same storage share it.
func (s *Storage) ID() uuid.UUID { return s.id }

// Size returns the capacity in bytes.
func (s *Storage) Size() int { return s.size }

// Device returns the device type that owns the memory.
func (s *Storage) Device() Device { return s.device }

// DeviceID returns the device id that owns the memory.
func (s *Storage) DeviceID() int { return s.deviceID }

// Pinned reports whether this is host staging memory from a device runtime.
func (s *Storage) Pinned() bool { return s.pinned }

// Runtime returns the runtime that allocated the memory.
func (s *Storage) Runtime() Runtime { return s.runtime }

// Memory returns the underlying allocation.
func (s *Storage) Memory() Memory { return s.mem }

// Host returns the host-addressable bytes, or nil for device memory.
func (s *Storage) Host() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem == nil {
		return nil
	}
	return s.mem.Host()
}

// RefCount returns the number of live references.
func (s *Storage) RefCount() int {
	return int(s.refCount.Load())
}

// retain increments the reference count for a new view.
func (s *Storage) retain() {
	s.refCount.Add(1)
}

// release decrements the reference count and frees the memory at zero.
func (s *Storage) release() {
	if s.refCount.Add(-1) != 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem != nil {
		s.mem.Release()
		s.mem = nil
	}
	s.ctx.log.Debug("storage released", "id", s.id, "device", s.device, "bytes", s.size)
}

// released reports whether the memory has already been freed.
func (s *Storage) released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem == nil
}
