package tensor

import "fmt"

// Load copies NumElements()*ElementSize() bytes from src into the tensor's
// storage starting at its offset. The bytes are written linearly; callers
// load into contiguous tensors.
func (t *Tensor) Load(src []byte) error {
	n := t.NumElements() * t.ElementSize()
	if len(src) < n {
		return Errorf(ErrInvalidArgument, "load", "source has %d bytes, need %d", len(src), n)
	}
	if t.offset+n > t.storage.size {
		return Errorf(ErrInvalidArgument, "load", "%d bytes at offset %d exceed storage of %d bytes", n, t.offset, t.storage.size)
	}
	mem, err := t.memory("load")
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	kind := MemcpyH2H
	if t.storage.Host() == nil {
		kind = MemcpyH2D
	}
	if err := t.storage.runtime.Memcpy(mem, t.offset, HostMemory(src[:n]), 0, n, kind); err != nil {
		return fmt.Errorf("load %d bytes: %w", n, err)
	}
	return nil
}

// Contiguous returns a tensor with row-major layout holding the same logical
// elements. A tensor that is already contiguous is returned as a new view of
// the same storage; otherwise the elements are gathered into fresh storage
// on the same device.
func (t *Tensor) Contiguous() (*Tensor, error) {
	if t.IsContiguous() {
		return t.newView("contiguous", t.meta.clone(), t.offset)
	}

	src, err := t.storageBytes()
	if err != nil {
		return nil, err
	}

	out, err := Create(t.storage.ctx, t.meta.Shape, t.meta.DType, t.storage.device, t.storage.deviceID)
	if err != nil {
		return nil, err
	}

	if dst := out.Data(); dst != nil {
		gather(dst, src, t.meta, t.offset)
		return out, nil
	}

	buf := make([]byte, out.NumElements()*out.ElementSize())
	gather(buf, src, t.meta, t.offset)
	if err := out.Load(buf); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// Reshape returns a tensor with the given shape and the same elements in
// row-major order. Contiguous tensors are viewed; others are copied first.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	newShape := Shape(shape)
	if err := newShape.Validate(); err != nil {
		return nil, Errorf(ErrInvalidArgument, "reshape", "%v", err)
	}
	if newShape.NumElements() != t.NumElements() {
		return nil, Errorf(ErrInvalidArgument, "reshape",
			"cannot reshape %v (%d elements) to %v (%d elements)",
			t.meta.Shape, t.NumElements(), newShape, newShape.NumElements())
	}
	if t.IsContiguous() {
		return t.View(shape...)
	}

	c, err := t.Contiguous()
	if err != nil {
		return nil, err
	}
	defer c.Release()
	return c.View(shape...)
}

// To returns a contiguous copy of the tensor on the target device. When the
// target is the tensor's own device the result is Contiguous().
func (t *Tensor) To(device Device, deviceID int) (*Tensor, error) {
	if device == t.storage.device && deviceID == t.storage.deviceID {
		return t.Contiguous()
	}

	src, err := t.Contiguous()
	if err != nil {
		return nil, err
	}
	defer src.Release()

	dst, err := Create(t.storage.ctx, t.meta.Shape, t.meta.DType, device, deviceID)
	if err != nil {
		return nil, err
	}
	if err := copyStorage(dst.storage, 0, src.storage, src.offset, src.NumElements()*src.ElementSize()); err != nil {
		dst.Release()
		return nil, fmt.Errorf("copy %s to %s:%d: %w", t, device, deviceID, err)
	}
	return dst, nil
}

// Bytes returns a host copy of the tensor's elements in row-major order.
func (t *Tensor) Bytes() ([]byte, error) {
	src, err := t.storageBytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, t.NumElements()*t.ElementSize())
	gather(out, src, t.meta, t.offset)
	return out, nil
}

// storageBytes returns the whole storage as host bytes, copying device
// memory back to the host when needed.
func (t *Tensor) storageBytes() ([]byte, error) {
	if host := t.storage.Host(); host != nil {
		return host, nil
	}
	mem, err := t.memory("read")
	if err != nil {
		return nil, err
	}
	rt := t.storage.runtime
	if err := rt.Synchronize(t.storage.deviceID); err != nil {
		return nil, err
	}
	buf := make([]byte, t.storage.size)
	if len(buf) == 0 {
		return buf, nil
	}
	if err := rt.Memcpy(HostMemory(buf), 0, mem, 0, len(buf), MemcpyD2H); err != nil {
		return nil, fmt.Errorf("read %d bytes from %s:%d: %w", len(buf), t.storage.device, t.storage.deviceID, err)
	}
	return buf, nil
}

// copyStorage copies n bytes between two storages, picking the memcpy kind
// from where each side lives. Device-to-device copies between different
// runtimes are staged through the host.
func copyStorage(dst *Storage, dstOff int, src *Storage, srcOff int, n int) error {
	if n == 0 {
		return nil
	}
	if dst.released() || src.released() {
		return Errorf(ErrInvalidArgument, "copy", "storage already released")
	}

	dstHost, srcHost := dst.Host(), src.Host()
	switch {
	case dstHost != nil && srcHost != nil:
		copy(dstHost[dstOff:dstOff+n], srcHost[srcOff:srcOff+n])
		return nil
	case srcHost != nil:
		return dst.runtime.Memcpy(dst.mem, dstOff, HostMemory(srcHost[srcOff:srcOff+n]), 0, n, MemcpyH2D)
	case dstHost != nil:
		return src.runtime.Memcpy(HostMemory(dstHost[dstOff:dstOff+n]), 0, src.mem, srcOff, n, MemcpyD2H)
	case dst.runtime == src.runtime:
		return dst.runtime.Memcpy(dst.mem, dstOff, src.mem, srcOff, n, MemcpyD2D)
	}

	staging := make([]byte, n)
	if err := src.runtime.Memcpy(HostMemory(staging), 0, src.mem, srcOff, n, MemcpyD2H); err != nil {
		return err
	}
	return dst.runtime.Memcpy(dst.mem, dstOff, HostMemory(staging), 0, n, MemcpyH2D)
}

// gather copies the elements addressed by meta at byte offset off in src
// into dst in row-major order.
func gather(dst, src []byte, meta Meta, off int) {
	size := meta.DType.Size()
	if meta.Shape.NumElements() == 0 {
		return
	}

	idx := make([]int, len(meta.Shape))
	for pos := 0; ; pos += size {
		at := off
		for i, ix := range idx {
			at += ix * meta.Strides[i] * size
		}
		copy(dst[pos:pos+size], src[at:at+size])

		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < meta.Shape[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
