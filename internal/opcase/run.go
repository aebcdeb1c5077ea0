package opcase

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"github.com/born-ml/forward/internal/safetensors"
	"github.com/born-ml/forward/internal/tensor"
)

// Output is one output tensor read back after a run, widened to float64.
type Output struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Result is the outcome of running a case.
type Result struct {
	Name    string            `json:"name,omitempty"`
	Op      string            `json:"op"`
	DType   string            `json:"dtype"`
	Device  string            `json:"device"`
	Outputs map[string]Output `json:"outputs"`
}

// Run creates the case's tensors in ctx, calls the operator and reads the
// outputs back. Tensors go to the case's device (CPU by default); host
// tensors created while an accelerator is active are staged in its pinned
// memory. The operator's error is returned unchanged.
func Run(ctx *tensor.Context, c *Case) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	op := operators[c.Op]
	dtype, _ := c.dataType()
	device, _ := c.device()
	deviceID := 0
	if active, id := ctx.Device(); active == device {
		deviceID = id
	}

	log := ctx.Logger().With("op", c.Op, "dtype", dtype, "device", device)
	t := make(tensors, len(c.Inputs)+len(c.Outputs))
	files := make(map[string]*safetensors.Reader)
	defer func() {
		for _, x := range t {
			x.Release()
		}
		for _, r := range files {
			_ = r.Close()
		}
	}()

	create := func(name string, spec TensorSpec) error {
		var x *tensor.Tensor
		var err error
		if spec.File != "" {
			x, err = c.loadTensor(ctx, files, op, name, spec, dtype, device, deviceID)
		} else {
			x, err = newTensor(ctx, op, name, spec, dtype, device, deviceID)
		}
		if err != nil {
			return fmt.Errorf("%s: create %s: %w", c.Op, name, err)
		}
		t[name] = x
		return nil
	}
	for _, name := range sortedKeys(c.Inputs) {
		if err := create(name, c.Inputs[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(c.Outputs) {
		if err := create(name, c.Outputs[name]); err != nil {
			return nil, err
		}
	}

	log.Debug("running case", "name", c.Name, "tensors", len(t))
	if err := op.call(t, c.Params); err != nil {
		return nil, err
	}

	res := &Result{
		Name:    c.Name,
		Op:      c.Op,
		DType:   dtype.String(),
		Device:  fmt.Sprintf("%s:%d", device, deviceID),
		Outputs: make(map[string]Output, len(c.Outputs)),
	}
	for name := range c.Outputs {
		data, err := t[name].Float64s()
		if err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", c.Op, name, err)
		}
		res.Outputs[name] = Output{Shape: t[name].Shape().Clone(), Data: data}
	}
	return res, nil
}

func newTensor(ctx *tensor.Context, op operator, name string, spec TensorSpec,
	dtype tensor.DataType, device tensor.Device, deviceID int,
) (*tensor.Tensor, error) {
	shape := shapeOf(spec)
	if op.index[name] {
		data := make([]int64, shape.NumElements())
		for i := range data {
			if i < len(spec.Data) {
				data[i] = int64(spec.Data[i])
			}
		}
		return tensor.FromInt64(ctx, data, shape, device, deviceID)
	}

	data := make([]float32, shape.NumElements())
	for i := range data {
		if i < len(spec.Data) {
			data[i] = float32(spec.Data[i])
		}
	}
	return tensor.FromFloat32(ctx, data, shape, dtype, device, deviceID)
}

// loadTensor reads an input from a SafeTensors file and converts it to the
// case dtype, or to i64 for index inputs.
func (c *Case) loadTensor(ctx *tensor.Context, files map[string]*safetensors.Reader, op operator, name string,
	spec TensorSpec, dtype tensor.DataType, device tensor.Device, deviceID int,
) (*tensor.Tensor, error) {
	path := spec.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}
	r, ok := files[path]
	if !ok {
		var err error
		if r, err = safetensors.Open(path); err != nil {
			return nil, err
		}
		files[path] = r
	}

	key := spec.Tensor
	if key == "" {
		key = name
	}
	x, err := r.Load(ctx, key, device, deviceID)
	if err != nil {
		return nil, err
	}
	if spec.Shape != nil && !x.Shape().Equal(shapeOf(spec)) {
		x.Release()
		return nil, fmt.Errorf("%s has shape %v, case declares %v", key, x.Shape(), spec.Shape)
	}

	want := dtype
	if op.index[name] {
		want = tensor.Int64
	}
	if x.DType() == want {
		return x, nil
	}
	defer x.Release()
	data, err := x.Float64s()
	if err != nil {
		return nil, err
	}
	converted := TensorSpec{Shape: x.Shape().Clone(), Data: data}
	if err := checkIndices(op, name, data); err != nil {
		return nil, err
	}
	return newTensor(ctx, op, name, converted, dtype, device, deviceID)
}

// Check compares the result against the case's expectations. The
// tolerance is absolute; zero demands exact equality.
func (r *Result) Check(c *Case) error {
	for _, name := range sortedKeys(c.Expect) {
		want := c.Expect[name]
		got, ok := r.Outputs[name]
		if !ok {
			return fmt.Errorf("%s: no output %q", c.Op, name)
		}
		if len(got.Data) != len(want) {
			return fmt.Errorf("%s: output %q has %d values, expected %d", c.Op, name, len(got.Data), len(want))
		}
		for i := range want {
			if d := math.Abs(got.Data[i] - want[i]); !(d <= c.Tolerance) {
				return fmt.Errorf("%s: %s[%d] = %g, expected %g (tolerance %g)",
					c.Op, name, i, got.Data[i], want[i], c.Tolerance)
			}
		}
	}
	return nil
}

// WriteJSON writes the result as an indented JSON document.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
