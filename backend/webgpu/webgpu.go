// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU device runtime.
//
// The runtime allocates GPU buffers and copies between them and host
// memory; it has no compute kernels. Operators on tensors that live in
// WebGPU memory fail with tensor.ErrUnsupported, while host tensors created
// with WebGPU active are staged in its mapped memory and run on the host
// kernels. The runtime is available on Windows builds only.
//
// Example:
//
//	import (
//	    "github.com/born-ml/forward/backend/cpu"
//	    "github.com/born-ml/forward/backend/webgpu"
//	    "github.com/born-ml/forward/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Close()
//
//	    ctx := tensor.NewContext(tensor.WithRuntime(cpu.New()), tensor.WithRuntime(gpu))
//	    _ = ctx.SetDevice(tensor.WebGPU, 0)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/forward/internal/backend/webgpu"
	"github.com/born-ml/forward/tensor"
)

// Runtime is the WebGPU device runtime.
type Runtime = internalwebgpu.Runtime

var _ tensor.Runtime = (*Runtime)(nil)

// New opens the default adapter and device.
func New() (*Runtime, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be opened.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
