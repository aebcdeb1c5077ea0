// Package ops implements the operator entry points. Each operator validates
// its operands in a fixed order (device, dtype, contiguity, shape) before
// dispatching on device type to a kernel. A failed validation leaves every
// output untouched.
package ops

import (
	"github.com/born-ml/forward/internal/tensor"
)

// operand is a named tensor argument.
type operand struct {
	name string
	t    *tensor.Tensor
}

func arg(name string, t *tensor.Tensor) operand {
	return operand{name: name, t: t}
}

// firstError returns the first non-nil error in argument order.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// sameDevice checks that every operand is non-nil and that all share one
// device type and id.
func sameDevice(op string, args ...operand) error {
	for _, a := range args {
		if a.t == nil {
			return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s is nil", a.name)
		}
	}
	ref := args[0]
	for _, a := range args[1:] {
		if a.t.Device() != ref.t.Device() || a.t.DeviceID() != ref.t.DeviceID() {
			return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s on %s:%d but %s on %s:%d",
				ref.name, ref.t.Device(), ref.t.DeviceID(), a.name, a.t.Device(), a.t.DeviceID())
		}
	}
	return nil
}

// The checks below skip nil operands; sameDevice reports them first.

// indexType checks that a holds int64 indices or positions.
func indexType(op string, a operand) error {
	if a.t != nil && a.t.DType() != tensor.Int64 {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s must be i64, got %s", a.name, a.t.DType())
	}
	return nil
}

// valueTypes checks that the operands share one dtype among f32, f16 and bf16.
func valueTypes(op string, args ...operand) error {
	for _, a := range args {
		if a.t == nil {
			return nil
		}
	}
	ref := args[0]
	for _, a := range args[1:] {
		if a.t.DType() != ref.t.DType() {
			return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s is %s but %s is %s",
				ref.name, ref.t.DType(), a.name, a.t.DType())
		}
	}
	switch ref.t.DType() {
	case tensor.Float32, tensor.Float16, tensor.BFloat16:
		return nil
	default:
		return tensor.Errorf(tensor.ErrUnsupported, op, "dtype %s not in {f32, f16, bf16}", ref.t.DType())
	}
}

func contiguous(op string, args ...operand) error {
	for _, a := range args {
		if a.t != nil && !a.t.IsContiguous() {
			return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s with shape %v strides %v is not contiguous",
				a.name, a.t.Shape(), a.t.Strides())
		}
	}
	return nil
}

func rank(op string, a operand, n int) error {
	if a.t != nil && a.t.NDim() != n {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s must be %d-D, got shape %v", a.name, n, a.t.Shape())
	}
	return nil
}

// dim checks a.t.Shape()[axis] == want.
func dim(op string, a operand, axis, want int, what string) error {
	if got := a.t.Shape()[axis]; got != want {
		return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s dim %d is %d, want %d (%s)", a.name, axis, got, want, what)
	}
	return nil
}

// hostKernels selects the host kernels for the operands' device, failing
// with ErrUnsupported for devices without kernels.
func hostKernels(op string, args ...operand) error {
	if d := args[0].t.Device(); d != tensor.CPU {
		return tensor.Errorf(tensor.ErrUnsupported, op, "no kernels for device %s", d)
	}
	for _, a := range args {
		if a.t.Data() == nil {
			return tensor.Errorf(tensor.ErrInvalidArgument, op, "%s storage already released", a.name)
		}
	}
	return nil
}
