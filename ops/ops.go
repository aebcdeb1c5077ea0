// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides the inference operators of forward.
//
// Each operator validates its operands (device, dtype, contiguity, shape)
// before writing anything, then runs the kernel for the operands' device.
// Supported dtypes are f32, f16 and bf16; f16 and bf16 are accumulated in
// f32. Index tensors are i64.
//
// Example:
//
//	ctx := tensor.NewContext(tensor.WithRuntime(cpu.New()))
//	gate, _ := tensor.FromFloat32(ctx, []float32{25, 100}, tensor.Shape{2}, tensor.BFloat16, tensor.CPU, 0)
//	up, _ := tensor.FromFloat32(ctx, []float32{2, 2}, tensor.Shape{2}, tensor.BFloat16, tensor.CPU, 0)
//	out, _ := tensor.Create(ctx, tensor.Shape{2}, tensor.BFloat16, tensor.CPU, 0)
//	if err := ops.SwiGLU(out, gate, up); err != nil {
//	    log.Fatal(err)
//	}
package ops

import (
	"github.com/born-ml/forward/internal/ops"
	"github.com/born-ml/forward/tensor"
)

// Argmax writes the index and value of the first maximum of the 1-D vals
// into the single-element maxIdx (i64) and maxVal.
func Argmax(maxIdx, maxVal, vals *tensor.Tensor) error {
	return ops.Argmax(maxIdx, maxVal, vals)
}

// Embedding gathers rows of weight [vocab, dim] selected by the i64 index
// into out [len(index), dim].
func Embedding(out, index, weight *tensor.Tensor) error {
	return ops.Embedding(out, index, weight)
}

// Linear computes out = in @ weight^T + bias. bias may be nil.
func Linear(out, in, weight, bias *tensor.Tensor) error {
	return ops.Linear(out, in, weight, bias)
}

// RMSNorm normalizes each row of in by its root mean square and scales by
// weight.
func RMSNorm(out, in, weight *tensor.Tensor, eps float32) error {
	return ops.RMSNorm(out, in, weight, eps)
}

// RoPE applies rotary position embedding to in [seq_len, n_heads, head_dim]
// at the i64 positions posIDs.
func RoPE(out, in, posIDs *tensor.Tensor, theta float32) error {
	return ops.RoPE(out, in, posIDs, theta)
}

// SelfAttention computes causal grouped-query attention.
func SelfAttention(attnVal, q, k, v *tensor.Tensor, scale float32) error {
	return ops.SelfAttention(attnVal, q, k, v, scale)
}

// SwiGLU computes out = up * silu(gate) elementwise.
func SwiGLU(out, gate, up *tensor.Tensor) error {
	return ops.SwiGLU(out, gate, up)
}
