package safetensors

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/forward/internal/backend/cpu"
	"github.com/born-ml/forward/internal/tensor"
)

func newContext() *tensor.Context {
	return tensor.NewContext(tensor.WithRuntime(cpu.New()))
}

// rawFile builds a file from a literal header and data section.
func rawFile(header string, data []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(header)))
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	ctx := newContext()
	w, err := tensor.FromFloat32(ctx, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.BFloat16, tensor.CPU, 0)
	require.NoError(t, err)
	defer w.Release()
	wt, err := w.Permute(1, 0)
	require.NoError(t, err)
	defer wt.Release()
	ids, err := tensor.FromInt64(ctx, []int64{7, -1}, tensor.Shape{2}, tensor.CPU, 0)
	require.NoError(t, err)
	defer ids.Release()

	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, WriteFile(path, map[string]*tensor.Tensor{
		"w.t": wt,
		"ids": ids,
	}, map[string]string{"format": "pt"}))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"ids", "w.t"}, r.Names())
	assert.Equal(t, map[string]string{"format": "pt"}, r.Metadata())

	info, err := r.Info("w.t")
	require.NoError(t, err)
	assert.Equal(t, Info{DType: "BF16", Shape: []int{3, 2}, DataOffsets: [2]int64{16, 28}}, info)

	got, err := r.Load(ctx, "w.t", tensor.CPU, 0)
	require.NoError(t, err)
	defer got.Release()
	assert.Equal(t, tensor.BFloat16, got.DType())
	assert.True(t, got.IsContiguous())
	vals, err := got.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, vals, "views are written row-major")

	gotIDs, err := r.Load(ctx, "ids", tensor.CPU, 0)
	require.NoError(t, err)
	defer gotIDs.Release()
	idVals, err := tensor.Values[int64](gotIDs)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, -1}, idVals)

	_, err = r.Load(ctx, "missing", tensor.CPU, 0)
	assert.Error(t, err)
}

func TestReaderRejects(t *testing.T) {
	huge := make([]byte, 8)
	binary.LittleEndian.PutUint64(huge, maxHeaderSize+1)

	tests := []struct {
		name string
		file []byte
	}{
		{"truncated size", []byte{1, 2, 3}},
		{"huge header", huge},
		{"bad json", rawFile("{", nil)},
		{"dtype", rawFile(`{"x":{"dtype":"F8","shape":[1],"data_offsets":[0,1]}}`, []byte{0})},
		{"size", rawFile(`{"x":{"dtype":"F32","shape":[2],"data_offsets":[0,4]}}`, make([]byte, 4))},
		{"negative", rawFile(`{"x":{"dtype":"F32","shape":[-1],"data_offsets":[0,0]}}`, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.file))
			assert.Error(t, err)
		})
	}
}

func TestTruncatedData(t *testing.T) {
	file := rawFile(`{"x":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`, make([]byte, 4))
	r, err := NewReader(bytes.NewReader(file))
	require.NoError(t, err)

	_, err = r.ReadBytes("x")
	assert.Error(t, err)
}

func TestEmptyTensor(t *testing.T) {
	file := rawFile(`{"e":{"dtype":"F16","shape":[0,4],"data_offsets":[0,0]}}`, nil)
	r, err := NewReader(bytes.NewReader(file))
	require.NoError(t, err)

	x, err := r.Load(newContext(), "e", tensor.CPU, 0)
	require.NoError(t, err)
	defer x.Release()
	assert.Equal(t, tensor.Shape{0, 4}, x.Shape())
}

func TestDTypeNames(t *testing.T) {
	for name, dt := range dtypes {
		got, err := DTypeName(dt)
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
	got, err := DTypeName(tensor.Byte)
	require.NoError(t, err)
	assert.Equal(t, "U8", got)
}
