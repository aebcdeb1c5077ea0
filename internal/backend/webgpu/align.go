// Package webgpu implements a tensor.Runtime backed by WebGPU buffers.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// The runtime only allocates device memory and moves bytes; compute kernels
// run on the host. It is available on Windows builds; elsewhere New reports
// tensor.ErrUnsupported.
package webgpu

// copyAlignment is the granularity WebGPU requires for buffer copy offsets
// and sizes.
const copyAlignment = 4

// window is the 4-byte aligned byte range covering [offset, offset+n).
type window struct {
	start int // aligned start
	size  int // aligned size
	skip  int // offset - start
}

func alignedWindow(offset, n int) window {
	start := offset &^ (copyAlignment - 1)
	end := (offset + n + copyAlignment - 1) &^ (copyAlignment - 1)
	return window{start: start, size: end - start, skip: offset - start}
}

// aligned reports whether the window needs no read-modify-write.
func (w window) aligned(n int) bool {
	return w.skip == 0 && w.size == n
}

// bufferSize rounds a requested allocation up to the copy alignment. Empty
// allocations still get one word so every storage has a backing buffer.
func bufferSize(size int) int {
	if size <= 0 {
		return copyAlignment
	}
	return (size + copyAlignment - 1) &^ (copyAlignment - 1)
}
