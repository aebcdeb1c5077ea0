// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host runtime of forward.
//
// # Overview
//
// The CPU runtime allocates zeroed host memory and copies between host
// buffers. Operators in the ops package run their host kernels on tensors
// whose storage it owns, and on host tensors staged in an accelerator's
// pinned memory.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/forward/backend/cpu"
//	    "github.com/born-ml/forward/tensor"
//	)
//
//	func main() {
//	    ctx := tensor.NewContext(tensor.WithRuntime(cpu.New()))
//	    x, _ := tensor.Create(ctx, tensor.Shape{2, 3}, tensor.Float32, tensor.CPU, 0)
//	    defer x.Release()
//	}
//
// # Thread Safety
//
// The runtime holds no mutable state and is safe for concurrent use.
package cpu
