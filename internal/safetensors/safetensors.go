// Package safetensors reads and writes tensors in the SafeTensors format:
//
//	[8 bytes: header size N, uint64 little-endian]
//	[N bytes: JSON header]
//	[tensor data]
//
// The header maps tensor names to {dtype, shape, data_offsets}, with
// offsets relative to the start of the data section. An optional
// "__metadata__" entry holds string metadata.
package safetensors

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/born-ml/forward/internal/tensor"
)

const (
	metadataKey   = "__metadata__"
	maxHeaderSize = 100 << 20
)

// Info describes one tensor in the header.
type Info struct {
	DType       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Size returns the byte length of the tensor's data.
func (i Info) Size() int64 {
	return i.DataOffsets[1] - i.DataOffsets[0]
}

var dtypes = map[string]tensor.DataType{
	"F32":  tensor.Float32,
	"F64":  tensor.Float64,
	"F16":  tensor.Float16,
	"BF16": tensor.BFloat16,
	"I8":   tensor.Int8,
	"I16":  tensor.Int16,
	"I32":  tensor.Int32,
	"I64":  tensor.Int64,
	"U8":   tensor.Uint8,
	"U16":  tensor.Uint16,
	"U32":  tensor.Uint32,
	"U64":  tensor.Uint64,
	"BOOL": tensor.Bool,
}

// DataType maps a SafeTensors dtype name to a tensor.DataType.
func DataType(name string) (tensor.DataType, error) {
	dt, ok := dtypes[name]
	if !ok {
		return 0, fmt.Errorf("unsupported safetensors dtype %q", name)
	}
	return dt, nil
}

// DTypeName maps a tensor.DataType to its SafeTensors dtype name.
func DTypeName(dt tensor.DataType) (string, error) {
	if dt == tensor.Byte {
		return "U8", nil
	}
	for name, d := range dtypes {
		if d == dt {
			return name, nil
		}
	}
	return "", fmt.Errorf("no safetensors dtype for %s", dt)
}

// Reader reads tensors from a SafeTensors file.
type Reader struct {
	r          io.ReaderAt
	closer     io.Closer
	infos      map[string]Info
	metadata   map[string]string
	dataOffset int64
}

// Open opens the file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader parses the header available through r.
func NewReader(r io.ReaderAt) (*Reader, error) {
	var sizeBuf [8]byte
	if err := readAt(r, sizeBuf[:], 0); err != nil {
		return nil, fmt.Errorf("read header size: %w", err)
	}
	headerSize := binary.LittleEndian.Uint64(sizeBuf[:])
	if headerSize > maxHeaderSize {
		return nil, fmt.Errorf("header size %d exceeds %d bytes", headerSize, maxHeaderSize)
	}

	header := make([]byte, headerSize)
	if err := readAt(r, header, 8); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(header, &raw); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	rd := &Reader{
		r:          r,
		infos:      make(map[string]Info, len(raw)),
		dataOffset: 8 + int64(headerSize),
	}
	for name, value := range raw {
		if name == metadataKey {
			if err := json.Unmarshal(value, &rd.metadata); err != nil {
				return nil, fmt.Errorf("parse metadata: %w", err)
			}
			continue
		}
		var info Info
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, fmt.Errorf("parse tensor %s: %w", name, err)
		}
		if err := info.validate(); err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		rd.infos[name] = info
	}
	return rd, nil
}

func (i Info) validate() error {
	dt, err := DataType(i.DType)
	if err != nil {
		return err
	}
	shape := tensor.Shape(i.Shape)
	if err := shape.Validate(); err != nil {
		return err
	}
	if i.DataOffsets[0] < 0 || i.Size() < 0 {
		return fmt.Errorf("invalid data offsets %v", i.DataOffsets)
	}
	if want := int64(shape.NumElements() * dt.Size()); i.Size() != want {
		return fmt.Errorf("%d data bytes for %s%v, want %d", i.Size(), i.DType, i.Shape, want)
	}
	return nil
}

// Close closes the underlying file when the Reader was opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Metadata returns the header's string metadata.
func (r *Reader) Metadata() map[string]string {
	return r.metadata
}

// Names returns the tensor names in sorted order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.infos))
	for name := range r.infos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the header entry for name.
func (r *Reader) Info(name string) (Info, error) {
	info, ok := r.infos[name]
	if !ok {
		return Info{}, fmt.Errorf("tensor %q not found", name)
	}
	return info, nil
}

// ReadBytes returns the raw little-endian data of the named tensor.
func (r *Reader) ReadBytes(name string) ([]byte, error) {
	info, err := r.Info(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, info.Size())
	if err := readAt(r.r, data, r.dataOffset+info.DataOffsets[0]); err != nil {
		return nil, fmt.Errorf("read tensor %s: %w", name, err)
	}
	return data, nil
}

// Load reads the named tensor into a new tensor on the given device.
func (r *Reader) Load(ctx *tensor.Context, name string, device tensor.Device, deviceID int) (*tensor.Tensor, error) {
	info, err := r.Info(name)
	if err != nil {
		return nil, err
	}
	dt, _ := DataType(info.DType)
	data, err := r.ReadBytes(name)
	if err != nil {
		return nil, err
	}

	t, err := tensor.Create(ctx, tensor.Shape(info.Shape), dt, device, deviceID)
	if err != nil {
		return nil, err
	}
	if err := t.Load(data); err != nil {
		t.Release()
		return nil, fmt.Errorf("load tensor %s: %w", name, err)
	}
	return t, nil
}

// readAt fills p from offset off. A full read ending at EOF succeeds.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	if len(p) == 0 {
		return nil
	}
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
