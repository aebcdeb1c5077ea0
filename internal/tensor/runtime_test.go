package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hostRuntime serves CPU tensors from plain host memory.
type hostRuntime struct{}

func (hostRuntime) Device() Device                        { return CPU }
func (hostRuntime) DeviceCount() int                      { return 1 }
func (hostRuntime) AllocateHost(size int) (Memory, error) { return NewHostMemory(size), nil }
func (hostRuntime) Synchronize(int) error                 { return nil }

func (hostRuntime) AllocateDevice(_, size int) (Memory, error) {
	return NewHostMemory(size), nil
}

func (hostRuntime) Memcpy(dst Memory, dstOffset int, src Memory, srcOffset int, n int, _ MemcpyKind) error {
	copy(dst.Host()[dstOffset:dstOffset+n], src.Host()[srcOffset:srcOffset+n])
	return nil
}

// deviceMemory is memory the host cannot address directly.
type deviceMemory struct {
	buf      []byte
	released *int
}

func (m *deviceMemory) Size() int    { return len(m.buf) }
func (m *deviceMemory) Host() []byte { return nil }
func (m *deviceMemory) Release()     { *m.released++ }

// deviceRuntime pretends to be a two-device accelerator and records every
// copy it performs.
type deviceRuntime struct {
	copies   []MemcpyKind
	released int
}

func (r *deviceRuntime) Device() Device        { return WebGPU }
func (r *deviceRuntime) DeviceCount() int      { return 2 }
func (r *deviceRuntime) Synchronize(int) error { return nil }

func (r *deviceRuntime) AllocateHost(size int) (Memory, error) {
	return NewHostMemory(size), nil
}

func (r *deviceRuntime) AllocateDevice(_, size int) (Memory, error) {
	return &deviceMemory{buf: make([]byte, size), released: &r.released}, nil
}

func (r *deviceRuntime) Memcpy(dst Memory, dstOffset int, src Memory, srcOffset int, n int, kind MemcpyKind) error {
	r.copies = append(r.copies, kind)
	bytesOf := func(m Memory) []byte {
		if d, ok := m.(*deviceMemory); ok {
			return d.buf
		}
		return m.Host()
	}
	copy(bytesOf(dst)[dstOffset:dstOffset+n], bytesOf(src)[srcOffset:srcOffset+n])
	return nil
}

func newTestContext(opts ...ContextOption) *Context {
	return NewContext(append([]ContextOption{WithRuntime(hostRuntime{})}, opts...)...)
}

func TestParseDevice(t *testing.T) {
	for name, want := range map[string]Device{"cpu": CPU, "CUDA": CUDA, " wgpu ": WebGPU, "metal": Metal} {
		got, err := ParseDevice(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseDevice("tpu")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestContextDevices(t *testing.T) {
	gpu := &deviceRuntime{}
	ctx := newTestContext()
	ctx.Register(gpu)

	assert.Equal(t, []Device{CPU, WebGPU}, ctx.Devices())

	d, id := ctx.Device()
	assert.Equal(t, CPU, d)
	assert.Equal(t, 0, id)

	require.NoError(t, ctx.SetDevice(WebGPU, 1))
	d, id = ctx.Device()
	assert.Equal(t, WebGPU, d)
	assert.Equal(t, 1, id)

	assert.ErrorIs(t, ctx.SetDevice(WebGPU, 2), ErrInvalidArgument)
	assert.ErrorIs(t, ctx.SetDevice(CUDA, 0), ErrUnsupported)
}

func TestContextsAreIndependent(t *testing.T) {
	a := newTestContext(WithRuntime(&deviceRuntime{}))
	b := newTestContext(WithRuntime(&deviceRuntime{}))

	require.NoError(t, a.SetDevice(WebGPU, 0))

	d, _ := b.Device()
	assert.Equal(t, CPU, d)
}

func TestErrorFormat(t *testing.T) {
	err := Errorf(ErrUnsupported, "linear", "dtype %s", Int32)
	assert.EqualError(t, err, "linear: unsupported operation: dtype i32")

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "linear", te.Op)
	assert.ErrorIs(t, err, ErrUnsupported)
}
