// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/tensor"
)

// Runtime is the host device runtime.
type Runtime = internalcpu.Runtime

// Compile-time check that Runtime implements tensor.Runtime.
var _ tensor.Runtime = (*Runtime)(nil)

// New creates a CPU runtime.
func New() *Runtime {
	return internalcpu.New()
}
