package cpu

import "github.com/born-ml/forward/internal/tensor"

// Embedding copies row index[i] of weight [vocab, dim] into row i of out for
// each of the numIndices int64 indices. All indices are checked before any
// row is written.
func Embedding(out, index, weight []byte, dtype tensor.DataType, numIndices, vocab, dim int) error {
	if dtype != tensor.Float32 && !dtype.IsHalf() {
		return unsupported("embedding", dtype)
	}
	indices := as[int64](index, numIndices)
	for i, idx := range indices {
		if idx < 0 || idx >= int64(vocab) {
			return tensor.Errorf(tensor.ErrInvalidArgument, "embedding",
				"index[%d] = %d out of range [0, %d)", i, idx, vocab)
		}
	}

	rowBytes := dim * dtype.Size()
	for i, idx := range indices {
		src := int(idx) * rowBytes
		dst := i * rowBytes
		copy(out[dst:dst+rowBytes], weight[src:src+rowBytes])
	}
	return nil
}
