package safetensors

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/born-ml/forward/internal/tensor"
)

// Write encodes tensors in name order. Views are written in row-major
// order and device tensors are copied back to the host first.
func Write(w io.Writer, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}
	data := make([][]byte, len(names))
	var offset int64
	for i, name := range names {
		t := tensors[name]
		dtype, err := DTypeName(t.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		if data[i], err = t.Bytes(); err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		size := int64(len(data[i]))
		header[name] = Info{
			DType:       dtype,
			Shape:       t.Shape().Clone(),
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	bw := bufio.NewWriter(w)
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(headerJSON)))
	if _, err := bw.Write(sizeBuf[:]); err != nil {
		return err
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return err
	}
	for _, b := range data {
		if _, err := bw.Write(b); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes tensors to path, replacing any existing file.
func WriteFile(path string, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, tensors, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
