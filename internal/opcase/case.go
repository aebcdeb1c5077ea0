// Package opcase loads operator cases from YAML and runs them against the
// ops entry points. A case names one operator, a dtype, scalar parameters,
// and the input and output tensors, optionally with expected outputs.
//
// Example case:
//
//	op: swiglu
//	dtype: bf16
//	inputs:
//	  gate: {shape: [2], data: [25, 100]}
//	  up:   {shape: [2], data: [2, 2]}
//	outputs:
//	  out: {shape: [2]}
//	expect:
//	  out: [50, 200]
package opcase

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/forward/internal/tensor"
)

// TensorSpec describes one tensor of a case. Data may be omitted for
// outputs, which then start zeroed. An input may instead name a tensor in
// a SafeTensors file; a relative File is resolved against the case file's
// directory and Tensor defaults to the input name. Shape, when given, must
// match the stored tensor.
type TensorSpec struct {
	Shape  []int     `yaml:"shape,omitempty"`
	Data   []float64 `yaml:"data,omitempty"`
	File   string    `yaml:"file,omitempty"`
	Tensor string    `yaml:"tensor,omitempty"`
}

// Params holds the scalar operator parameters. Unset values take the
// operator default.
type Params struct {
	Eps   *float32 `yaml:"eps,omitempty"`
	Theta *float32 `yaml:"theta,omitempty"`
	Scale *float32 `yaml:"scale,omitempty"`
}

// Case is a single operator invocation.
type Case struct {
	Name      string                `yaml:"name,omitempty"`
	Op        string                `yaml:"op"`
	DType     string                `yaml:"dtype"`
	Device    string                `yaml:"device,omitempty"`
	Params    Params                `yaml:"params,omitempty"`
	Inputs    map[string]TensorSpec `yaml:"inputs"`
	Outputs   map[string]TensorSpec `yaml:"outputs"`
	Expect    map[string][]float64  `yaml:"expect,omitempty"`
	Tolerance float64               `yaml:"tolerance,omitempty"`

	dir string
}

// Load decodes and validates a case.
func Load(r io.Reader) (*Case, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Case
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty case")
		}
		return nil, fmt.Errorf("decode case: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads the case at path.
func LoadFile(path string) (*Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.dir = filepath.Dir(path)
	return c, nil
}

// Validate checks that the case names a known operator with exactly the
// tensors it takes and that every tensor's data fits its shape. Operator
// level checks are left to the ops package.
func (c *Case) Validate() error {
	op, ok := operators[c.Op]
	if !ok {
		return fmt.Errorf("unknown op %q (expected one of %v)", c.Op, OpNames())
	}
	if _, err := c.dataType(); err != nil {
		return err
	}
	if _, err := c.device(); err != nil {
		return err
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance %g is negative", c.Tolerance)
	}

	for _, name := range op.inputs {
		if _, ok := c.Inputs[name]; !ok && !slices.Contains(op.optional, name) {
			return fmt.Errorf("%s: missing input %q", c.Op, name)
		}
	}
	for name, spec := range c.Inputs {
		if !slices.Contains(op.inputs, name) {
			return fmt.Errorf("%s: unexpected input %q", c.Op, name)
		}
		if err := shapeOf(spec).Validate(); err != nil {
			return fmt.Errorf("%s: input %q: %w", c.Op, name, err)
		}
		if spec.File != "" {
			if spec.Data != nil {
				return fmt.Errorf("%s: input %q has both file and data", c.Op, name)
			}
			continue
		}
		if len(spec.Data) != shapeOf(spec).NumElements() {
			return fmt.Errorf("%s: input %q has %d values for shape %v", c.Op, name, len(spec.Data), spec.Shape)
		}
		if err := checkIndices(op, name, spec.Data); err != nil {
			return fmt.Errorf("%s: %w", c.Op, err)
		}
	}

	for _, name := range op.outputs {
		if _, ok := c.Outputs[name]; !ok {
			return fmt.Errorf("%s: missing output %q", c.Op, name)
		}
	}
	for name, spec := range c.Outputs {
		if !slices.Contains(op.outputs, name) {
			return fmt.Errorf("%s: unexpected output %q", c.Op, name)
		}
		if err := shapeOf(spec).Validate(); err != nil {
			return fmt.Errorf("%s: output %q: %w", c.Op, name, err)
		}
		if spec.File != "" {
			return fmt.Errorf("%s: output %q cannot be read from a file", c.Op, name)
		}
		if spec.Data != nil && len(spec.Data) != shapeOf(spec).NumElements() {
			return fmt.Errorf("%s: output %q has %d values for shape %v", c.Op, name, len(spec.Data), spec.Shape)
		}
	}
	for name, want := range c.Expect {
		spec, ok := c.Outputs[name]
		if !ok {
			return fmt.Errorf("%s: expectation for unknown output %q", c.Op, name)
		}
		if len(want) != shapeOf(spec).NumElements() {
			return fmt.Errorf("%s: expected %d values for output %q of shape %v", c.Op, len(want), name, spec.Shape)
		}
	}
	return nil
}

func (c *Case) dataType() (tensor.DataType, error) {
	return tensor.ParseDataType(c.DType)
}

func (c *Case) device() (tensor.Device, error) {
	if c.Device == "" {
		return tensor.CPU, nil
	}
	return tensor.ParseDevice(c.Device)
}

func shapeOf(spec TensorSpec) tensor.Shape {
	return tensor.Shape(spec.Shape)
}

func checkIndices(op operator, name string, data []float64) error {
	if !op.index[name] {
		return nil
	}
	for i, v := range data {
		if v != math.Trunc(v) {
			return fmt.Errorf("%s[%d] = %g is not an integer", name, i, v)
		}
	}
	return nil
}

// OpNames lists the operators a case may name.
func OpNames() []string {
	names := make([]string, 0, len(operators))
	for name := range operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
