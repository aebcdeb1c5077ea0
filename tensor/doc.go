// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor view model of forward.
//
// # Overview
//
// A Tensor is a strided view (shape, strides, dtype, byte offset) over
// reference-counted Storage that lives on one device. Views created with
// Permute, Slice, View and Reshape share storage with their source; each
// view must be released once.
//
// Storage is allocated through the Runtime registered for its device in a
// Context. A host tensor requested while an accelerator is the active
// device is placed in that accelerator's pinned staging memory.
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
//	    x, err := tensor.FromFloat32(ctx, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.Float32, tensor.CPU, 0)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer x.Release()
//
//	    xt, _ := x.Permute(1, 0) // [3 2], shares storage with x
//	    defer xt.Release()
//	}
//
// # Errors
//
// Every error wraps ErrInvalidArgument or ErrUnsupported; test with
// errors.Is.
package tensor
