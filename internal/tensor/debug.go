package tensor

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Info returns a one-line summary of the tensor metadata and placement.
func (t *Tensor) Info() string {
	return fmt.Sprintf("Tensor: shape%v strides%v dtype=%s device=%s:%d offset=%d storage=%s refs=%d",
		t.meta.Shape, t.meta.Strides, t.meta.DType, t.Device(), t.DeviceID(),
		t.offset, t.storage.id, t.storage.RefCount())
}

// Debug writes Info followed by the elements, one innermost row per line.
// Device storage is synchronized and copied to the host first.
func (t *Tensor) Debug(w io.Writer) error {
	if _, err := fmt.Fprintln(w, t.Info()); err != nil {
		return err
	}
	b, err := t.Bytes()
	if err != nil {
		return err
	}

	var sb strings.Builder
	writeRows(&sb, b, t.meta.DType, t.meta.Shape, 0, 0)
	_, err = io.WriteString(w, sb.String())
	return err
}

// writeRows prints the row-major elements of b starting at element index
// base, nesting by dimension.
func writeRows(sb *strings.Builder, b []byte, dtype DataType, shape Shape, dim, base int) int {
	if len(shape) == 0 {
		sb.WriteString(formatElement(b, dtype, base))
		sb.WriteByte('\n')
		return base + 1
	}
	if dim == len(shape)-1 {
		for i := 0; i < shape[dim]; i++ {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(formatElement(b, dtype, base+i))
		}
		sb.WriteByte('\n')
		return base + shape[dim]
	}
	for i := 0; i < shape[dim]; i++ {
		base = writeRows(sb, b, dtype, shape, dim+1, base)
	}
	if dim < len(shape)-2 {
		sb.WriteByte('\n')
	}
	return base
}

func formatElement(b []byte, dtype DataType, i int) string {
	v := element(b, dtype, i)
	switch {
	case dtype.IsFloat():
		return strconv.FormatFloat(v, 'g', 6, 64)
	case dtype == Bool:
		return strconv.FormatBool(v != 0)
	case dtype == Uint64:
		return strconv.FormatUint(binary.LittleEndian.Uint64(b[i*8:]), 10)
	case dtype == Int64:
		return strconv.FormatInt(int64(binary.LittleEndian.Uint64(b[i*8:])), 10)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
