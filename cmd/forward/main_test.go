package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/config"
	"github.com/born-ml/forward/internal/opcase"
	"github.com/born-ml/forward/internal/safetensors"
	"github.com/born-ml/forward/internal/tensor"
)

// runApp runs the CLI on CPU with an empty config and returns stdout.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"FORWARD_DEVICE", "FORWARD_DEVICE_ID", "FORWARD_LOG_LEVEL", "FORWARD_LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	base := []string{"forward", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--device", "cpu"}
	err := app.Run(context.Background(), append(base, args...))
	return stdout.String(), err
}

func testdata(name string) string {
	return filepath.Join("..", "..", "internal", "opcase", "testdata", name)
}

func TestVersion(t *testing.T) {
	out, err := runApp(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: ")
	assert.Contains(t, out, "go:      go")
}

func TestDevices(t *testing.T) {
	out, err := runApp(t, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "CPU:0  (active)")
	assert.Contains(t, out, "backends: cpu")
}

func TestRunText(t *testing.T) {
	out, err := runApp(t, "run", "--check", testdata("swiglu.yaml"), testdata("argmax.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "swiglu saturates large gates: swiglu bf16 on CPU:0")
	assert.Contains(t, out, "  out [2] = [50 200]")
	assert.Contains(t, out, "  max_idx [1] = [5]")
}

func TestRunJSON(t *testing.T) {
	out, err := runApp(t, "run", "--format", "json", testdata("embedding.yaml"))
	require.NoError(t, err)

	var res opcase.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "embedding", res.Op)
	assert.Equal(t, "f16", res.DType)
	assert.Equal(t, []float64{5, 6, 1, 2}, res.Outputs["out"].Data)
}

func TestRunCheckFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
op: swiglu
dtype: f32
inputs:
  gate: {shape: [1], data: [25]}
  up: {shape: [1], data: [2]}
outputs:
  out: {shape: [1]}
expect:
  out: [0]
`), 0o600))

	_, err := runApp(t, "run", "--check", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 case(s) failed")

	_, err = runApp(t, "run", path)
	assert.NoError(t, err, "expectations are ignored without --check")
}

func TestRunErrors(t *testing.T) {
	_, err := runApp(t, "run")
	assert.ErrorContains(t, err, "case file is required")

	_, err = runApp(t, "run", "--format", "xml", testdata("swiglu.yaml"))
	assert.ErrorContains(t, err, "unknown format")

	_, err = runApp(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	ctx := tensor.NewContext(tensor.WithRuntime(cpu.New()))
	x, err := tensor.FromFloat32(ctx, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.Float16, tensor.CPU, 0)
	require.NoError(t, err)
	defer x.Release()

	path := filepath.Join(t.TempDir(), "w.safetensors")
	require.NoError(t, safetensors.WriteFile(path, map[string]*tensor.Tensor{"norm.weight": x}, map[string]string{"format": "pt"}))

	out, err := runApp(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# format: pt")
	assert.Contains(t, out, "norm.weight")
	assert.Contains(t, out, "F16   [2 2]")
	assert.Contains(t, out, "1 tensor(s), 8 bytes")

	_, err = runApp(t, "inspect")
	assert.Error(t, err)
}

func runConfigCommand(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	var loaded config.Config
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	app.Commands = append(app.Commands, &cli.Command{
		Name: "show-config",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			loaded = cfg
			return err
		},
	})
	err := app.Run(context.Background(), append(append([]string{"forward"}, args...), "show-config"))
	return loaded, err
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	t.Setenv("FORWARD_DEVICE", "")
	t.Setenv("FORWARD_DEVICE_ID", "")
	t.Setenv("FORWARD_LOG_FORMAT", "")
	t.Setenv("FORWARD_LOG_LEVEL", "debug")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: webgpu\nlog_format: json\n"), 0o600))

	cfg, err := runConfigCommand(t, "--config", path, "--device", "cpu", "--log-level", "warn")
	require.NoError(t, err)
	assert.Equal(t, "cpu", cfg.Device)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigFlagReplacesInvalidEnv(t *testing.T) {
	t.Setenv("FORWARD_DEVICE", "tpu")
	t.Setenv("FORWARD_DEVICE_ID", "")
	t.Setenv("FORWARD_LOG_FORMAT", "")
	t.Setenv("FORWARD_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := runConfigCommand(t, "--config", path, "--device", "cpu")
	require.NoError(t, err)
	assert.Equal(t, "cpu", cfg.Device)

	_, err = runConfigCommand(t, "--config", path)
	assert.Error(t, err)
}
