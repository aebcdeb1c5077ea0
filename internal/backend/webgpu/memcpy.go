//go:build windows

package webgpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/forward/internal/tensor"
)

// Memcpy copies n bytes from src[srcOffset:] to dst[dstOffset:]. Device
// ranges that are not 4-byte aligned are read, patched and written back
// through an aligned window.
func (r *Runtime) Memcpy(dst tensor.Memory, dstOffset int, src tensor.Memory, srcOffset int, n int, kind tensor.MemcpyKind) error {
	if n < 0 || dstOffset < 0 || srcOffset < 0 || dstOffset+n > dst.Size() || srcOffset+n > src.Size() {
		return tensor.Errorf(tensor.ErrInvalidArgument, "memcpy",
			"%s of %d bytes from offset %d (of %d) to offset %d (of %d)",
			kind, n, srcOffset, src.Size(), dstOffset, dst.Size())
	}
	if n == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dstBuf, dstIsDevice := dst.(*bufferMemory)
	srcBuf, srcIsDevice := src.(*bufferMemory)

	switch {
	case !dstIsDevice && !srcIsDevice:
		copy(dst.Host()[dstOffset:dstOffset+n], src.Host()[srcOffset:srcOffset+n])
		return nil
	case dstIsDevice && !srcIsDevice:
		return r.upload(dstBuf, dstOffset, src.Host()[srcOffset:srcOffset+n])
	case !dstIsDevice && srcIsDevice:
		return r.download(dst.Host()[dstOffset:dstOffset+n], srcBuf, srcOffset)
	}

	if dstBuf != srcBuf && alignedWindow(dstOffset, n).aligned(n) && alignedWindow(srcOffset, n).aligned(n) {
		//nolint:gosec // G115: offsets and sizes validated non-negative above
		r.copyBuffer(srcBuf.buf, uint64(srcOffset), dstBuf.buf, uint64(dstOffset), uint64(n))
		return nil
	}
	tmp := make([]byte, n)
	if err := r.download(tmp, srcBuf, srcOffset); err != nil {
		return err
	}
	return r.upload(dstBuf, dstOffset, tmp)
}

// upload writes data into m at offset.
func (r *Runtime) upload(m *bufferMemory, offset int, data []byte) error {
	w := alignedWindow(offset, len(data))
	staging := make([]byte, w.size)
	if !w.aligned(len(data)) {
		if err := r.read(staging, m.buf, w.start); err != nil {
			return err
		}
	}
	copy(staging[w.skip:], data)

	//nolint:gosec // G115: window sizes are positive
	size := uint64(w.size)
	buf := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	if buf == nil {
		return fmt.Errorf("webgpu: failed to create %d byte upload buffer", size)
	}
	defer buf.Release()
	copy(mapped(buf, size), staging)
	buf.Unmap()

	//nolint:gosec // G115: window start is non-negative
	r.copyBuffer(buf, 0, m.buf, uint64(w.start), size)
	return nil
}

// download fills dst from m starting at offset.
func (r *Runtime) download(dst []byte, m *bufferMemory, offset int) error {
	w := alignedWindow(offset, len(dst))
	if w.aligned(len(dst)) {
		return r.read(dst, m.buf, offset)
	}
	staging := make([]byte, w.size)
	if err := r.read(staging, m.buf, w.start); err != nil {
		return err
	}
	copy(dst, staging[w.skip:])
	return nil
}

// read copies len(dst) bytes at an aligned offset of src through a mappable
// staging buffer. len(dst) must be a multiple of 4.
func (r *Runtime) read(dst []byte, src *wgpu.Buffer, offset int) error {
	//nolint:gosec // G115: sizes are positive
	size := uint64(len(dst))
	staging := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	if staging == nil {
		return fmt.Errorf("webgpu: failed to create %d byte staging buffer", size)
	}
	defer staging.Release()

	//nolint:gosec // G115: offset is non-negative
	r.copyBuffer(src, uint64(offset), staging, 0, size)

	if err := staging.MapAsync(r.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	copy(dst, mapped(staging, size))
	staging.Unmap()
	return nil
}

func (r *Runtime) copyBuffer(src *wgpu.Buffer, srcOffset uint64, dst *wgpu.Buffer, dstOffset, size uint64) {
	encoder := r.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, srcOffset, dst, dstOffset, size)
	r.queue.Submit(encoder.Finish(nil))
}
