// Package backend resolves device names and builds a tensor.Context with
// the runtimes available in this build.
package backend

import (
	"fmt"
	"strings"

	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/backend/webgpu"
	"github.com/born-ml/forward/internal/logger"
	"github.com/born-ml/forward/internal/tensor"
)

// Backend names accepted by Normalize.
const (
	CPU    = "cpu"
	WebGPU = "webgpu"
	Auto   = "auto"
)

// Normalize canonicalizes a backend name. Empty selects Auto.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	switch backend {
	case "":
		return Auto, nil
	case "wgpu":
		return WebGPU, nil
	case CPU, WebGPU, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, cpu, or webgpu)", name)
	}
}

// Available returns a comma-separated list of available backends.
func Available() string {
	entries := []string{CPU}
	if webgpu.IsAvailable() {
		entries = append(entries, WebGPU)
	}
	return strings.Join(entries, ",")
}

// NewContext returns a Context with the CPU runtime registered and, when
// requested or when Auto finds one, the WebGPU runtime. The named backend
// becomes the active device. The returned close function releases device
// runtimes once all tensors are released.
func NewContext(name string, deviceID int, log logger.Logger) (*tensor.Context, func(), error) {
	backend, err := Normalize(name)
	if err != nil {
		return nil, nil, err
	}
	if log == nil {
		log = logger.Discard()
	}

	ctx := tensor.NewContext(tensor.WithLogger(log))
	ctx.Register(cpu.New(cpu.WithLogger(log.With("runtime", CPU))))
	closeFn := func() {}

	if backend == WebGPU || backend == Auto {
		rt, err := webgpu.New(webgpu.WithLogger(log.With("runtime", WebGPU)))
		switch {
		case err == nil:
			ctx.Register(rt)
			closeFn = rt.Close
			backend = WebGPU
		case backend == WebGPU:
			return nil, nil, fmt.Errorf("webgpu backend: %w", err)
		default:
			log.Debug("webgpu unavailable, using cpu", "error", err)
			backend = CPU
		}
	}

	device := tensor.CPU
	if backend == WebGPU {
		device = tensor.WebGPU
	}
	if err := ctx.SetDevice(device, deviceID); err != nil {
		closeFn()
		return nil, nil, err
	}
	log.Debug("context ready", "device", device, "id", deviceID)
	return ctx, closeFn, nil
}
