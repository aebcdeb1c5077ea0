package tensor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iota32(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

func mustFloat32(t *testing.T, ctx *Context, data []float32, shape Shape, dtype DataType) *Tensor {
	t.Helper()
	tt, err := FromFloat32(ctx, data, shape, dtype, CPU, 0)
	require.NoError(t, err)
	t.Cleanup(tt.Release)
	return tt
}

func TestDataType(t *testing.T) {
	sizes := map[DataType]int{
		Float32: 4, Float64: 8, Float16: 2, BFloat16: 2, Int8: 1, Int16: 2,
		Int32: 4, Int64: 8, Uint8: 1, Uint16: 2, Uint32: 4, Uint64: 8, Bool: 1, Byte: 1,
	}
	for dt, size := range sizes {
		assert.Equal(t, size, dt.Size(), dt.String())
		parsed, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, parsed)
	}

	assert.True(t, BFloat16.IsHalf())
	assert.True(t, Float64.IsFloat())
	assert.False(t, Int64.IsFloat())
	assert.Panics(t, func() { DataType(99).Size() })

	_, err := ParseDataType("complex64")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestShape(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 0, Shape{2, 0, 3}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, "[2 3]", Shape{2, 3}.String())
	assert.Error(t, Shape{2, -1}.Validate())
	assert.True(t, Shape{1, 2}.Equal(Shape{1, 2}))
	assert.False(t, Shape{1, 2}.Equal(Shape{2, 1}))
}

func TestCreate(t *testing.T) {
	ctx := newTestContext()

	tt, err := Create(ctx, Shape{2, 3, 4}, BFloat16, CPU, 0)
	require.NoError(t, err)
	defer tt.Release()

	assert.Equal(t, Shape{2, 3, 4}, tt.Shape())
	assert.Equal(t, []int{12, 4, 1}, tt.Strides())
	assert.Equal(t, 0, tt.Offset())
	assert.Equal(t, 48, tt.Storage().Size())
	assert.Equal(t, 1, tt.Storage().RefCount())
	assert.True(t, tt.IsContiguous())
	assert.Len(t, tt.Data(), 48)

	_, err = Create(ctx, Shape{2, -3}, Float32, CPU, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Create(ctx, Shape{2}, Float32, CPU, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Create(ctx, Shape{2}, Float32, CUDA, 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestScalarAndEmpty(t *testing.T) {
	ctx := newTestContext()

	scalar := mustFloat32(t, ctx, []float32{7}, Shape{}, Float32)
	assert.Equal(t, 0, scalar.NDim())
	assert.True(t, scalar.IsContiguous())
	got, err := scalar.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{7}, got)

	empty := mustFloat32(t, ctx, nil, Shape{0, 3}, Float32)
	assert.Equal(t, 0, empty.NumElements())
	assert.NoError(t, empty.Load(nil))
	got, err = empty.Float32s()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPermute(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(6), Shape{2, 3}, Float32)

	p, err := src.Permute(1, 0)
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, Shape{3, 2}, p.Shape())
	assert.Equal(t, []int{1, 3}, p.Strides())
	assert.False(t, p.IsContiguous())
	assert.Equal(t, src.Storage().ID(), p.Storage().ID())
	assert.Equal(t, 2, src.Storage().RefCount())

	vals, err := p.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, vals)

	_, err = src.Permute(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = src.Permute(0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = src.Permute(0, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSlice(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(12), Shape{4, 3}, Float32)

	rows, err := src.Slice(0, 1, 3)
	require.NoError(t, err)
	defer rows.Release()
	assert.Equal(t, Shape{2, 3}, rows.Shape())
	assert.Equal(t, 12, rows.Offset())
	assert.True(t, rows.IsContiguous())
	vals, err := rows.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5, 6, 7, 8}, vals)

	cols, err := src.Slice(1, 1, 3)
	require.NoError(t, err)
	defer cols.Release()
	assert.Equal(t, Shape{4, 2}, cols.Shape())
	assert.Equal(t, []int{3, 1}, cols.Strides())
	assert.False(t, cols.IsContiguous())
	vals, err = cols.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 4, 5, 7, 8, 10, 11}, vals)

	empty, err := src.Slice(0, 4, 4)
	require.NoError(t, err)
	defer empty.Release()
	assert.Equal(t, 0, empty.NumElements())

	for _, r := range [][3]int{{2, 0, 1}, {0, 3, 2}, {0, -1, 2}, {1, 0, 4}} {
		_, err := src.Slice(r[0], r[1], r[2])
		assert.ErrorIs(t, err, ErrInvalidArgument, "%v", r)
	}
}

func TestSliceChainsOffsets(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(24), Shape{2, 3, 4}, Float32)

	a, err := src.Slice(0, 1, 2)
	require.NoError(t, err)
	defer a.Release()
	b, err := a.Slice(2, 2, 4)
	require.NoError(t, err)
	defer b.Release()

	assert.Equal(t, (12+2)*4, b.Offset())
	vals, err := b.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{14, 15, 18, 19, 22, 23}, vals)
}

func TestView(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(6), Shape{2, 3}, Float32)

	v, err := src.View(3, 2)
	require.NoError(t, err)
	defer v.Release()
	assert.Equal(t, []int{2, 1}, v.Strides())
	assert.Equal(t, src.Storage().ID(), v.Storage().ID())

	_, err = src.View(4, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	p, err := src.Permute(1, 0)
	require.NoError(t, err)
	defer p.Release()
	_, err = p.View(6)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	rows := mustFloat32(t, ctx, iota32(12), Shape{4, 3}, Float32)
	mid, err := rows.Slice(0, 1, 3)
	require.NoError(t, err)
	defer mid.Release()
	flat, err := mid.View(6)
	require.NoError(t, err)
	defer flat.Release()
	assert.Equal(t, Shape{6}, flat.Shape())
	assert.Equal(t, 12, flat.Offset())
	vals, err := flat.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5, 6, 7, 8}, vals)

	cols, err := rows.Slice(1, 1, 3)
	require.NoError(t, err)
	defer cols.Release()
	_, err = cols.View(8)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestViewOutsideStorage(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(6), Shape{2, 3}, Float32)

	meta := Meta{DType: Float32, Shape: Shape{3, 3}, Strides: []int{3, 1}}
	_, err := src.newView("view", meta, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	meta = Meta{DType: Float32, Shape: Shape{2}, Strides: []int{-1}}
	_, err = src.newView("view", meta, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 1, src.Storage().RefCount())
}

func TestEmptySliceOffsetBounds(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(6), Shape{2, 3}, Float32)

	tail, err := src.Slice(0, 2, 2)
	require.NoError(t, err)
	defer tail.Release()
	assert.Equal(t, 0, tail.NumElements())
	assert.Empty(t, tail.Data())

	_, err = tail.Slice(1, 3, 3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 2, src.Storage().RefCount())
}

func TestContiguous(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(6), Shape{2, 3}, Float16)

	same, err := src.Contiguous()
	require.NoError(t, err)
	defer same.Release()
	assert.Equal(t, src.Storage().ID(), same.Storage().ID())

	p, err := src.Permute(1, 0)
	require.NoError(t, err)
	defer p.Release()

	c, err := p.Contiguous()
	require.NoError(t, err)
	defer c.Release()
	assert.NotEqual(t, src.Storage().ID(), c.Storage().ID())
	assert.True(t, c.IsContiguous())
	assert.Equal(t, Shape{3, 2}, c.Shape())
	vals, err := c.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, vals)
}

func TestReshape(t *testing.T) {
	ctx := newTestContext()
	src := mustFloat32(t, ctx, iota32(6), Shape{2, 3}, Float32)

	r, err := src.Reshape(6)
	require.NoError(t, err)
	defer r.Release()
	assert.Equal(t, src.Storage().ID(), r.Storage().ID())

	p, err := src.Permute(1, 0)
	require.NoError(t, err)
	defer p.Release()

	r2, err := p.Reshape(6)
	require.NoError(t, err)
	defer r2.Release()
	assert.NotEqual(t, src.Storage().ID(), r2.Storage().ID())
	assert.Equal(t, 1, r2.Storage().RefCount())
	vals, err := r2.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, vals)

	_, err = p.Reshape(7)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRelease(t *testing.T) {
	gpu := &deviceRuntime{}
	ctx := newTestContext(WithRuntime(gpu))

	tt, err := Create(ctx, Shape{4}, Float32, WebGPU, 0)
	require.NoError(t, err)
	v, err := tt.Slice(0, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, tt.Storage().RefCount())

	tt.Release()
	tt.Release()
	assert.Equal(t, 1, v.Storage().RefCount())
	assert.Equal(t, 0, gpu.released)

	v.Release()
	assert.Equal(t, 1, gpu.released)
	assert.ErrorIs(t, v.Load(make([]byte, 8)), ErrInvalidArgument)
	_, err = v.Permute(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeviceRoundTrip(t *testing.T) {
	gpu := &deviceRuntime{}
	ctx := newTestContext(WithRuntime(gpu))
	src := mustFloat32(t, ctx, iota32(6), Shape{2, 3}, BFloat16)

	p, err := src.Permute(1, 0)
	require.NoError(t, err)
	defer p.Release()

	dev, err := p.To(WebGPU, 1)
	require.NoError(t, err)
	defer dev.Release()
	assert.Equal(t, WebGPU, dev.Device())
	assert.Equal(t, 1, dev.DeviceID())
	assert.Nil(t, dev.Data())
	assert.Equal(t, []MemcpyKind{MemcpyH2D}, gpu.copies)

	vals, err := dev.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, vals)

	back, err := dev.To(CPU, 0)
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, CPU, back.Device())
	vals, err = back.Float32s()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, vals)

	other, err := dev.To(WebGPU, 0)
	require.NoError(t, err)
	defer other.Release()
	assert.Equal(t, MemcpyD2D, gpu.copies[len(gpu.copies)-1])
}

func TestPinnedHostStaging(t *testing.T) {
	gpu := &deviceRuntime{}
	ctx := newTestContext(WithRuntime(gpu))
	require.NoError(t, ctx.SetDevice(WebGPU, 0))

	tt := mustFloat32(t, ctx, []float32{1, 2}, Shape{2}, Float32)
	assert.True(t, tt.Storage().Pinned())
	assert.Equal(t, CPU, tt.Device())
	assert.Equal(t, WebGPU, tt.Storage().Runtime().Device())
	assert.NotNil(t, tt.Data())
	assert.Equal(t, []MemcpyKind{MemcpyH2H}, gpu.copies)
}

func TestValues(t *testing.T) {
	ctx := newTestContext()

	ids, err := FromInt64(ctx, []int64{3, -1, 9}, Shape{3}, CPU, 0)
	require.NoError(t, err)
	defer ids.Release()

	got, err := Values[int64](ids)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, -1, 9}, got)

	got[0] = 42
	again, err := Values[int64](ids)
	require.NoError(t, err)
	assert.Equal(t, int64(42), again[0])

	_, err = Values[float32](ids)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDebug(t *testing.T) {
	ctx := newTestContext()
	tt := mustFloat32(t, ctx, []float32{1, 2.5, -3, 4}, Shape{2, 2}, Float32)

	var buf bytes.Buffer
	require.NoError(t, tt.Debug(&buf))

	out := buf.String()
	assert.Contains(t, out, "shape[2 2] strides[2 1] dtype=f32 device=CPU:0 offset=0")
	assert.Contains(t, out, "1 2.5\n-3 4\n")
	assert.Equal(t, "Tensor[f32][2 2] on CPU:0", tt.String())
}

func TestFromFloat32Mismatch(t *testing.T) {
	ctx := newTestContext()
	_, err := FromFloat32(ctx, []float32{1, 2, 3}, Shape{2, 2}, Float32, CPU, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
