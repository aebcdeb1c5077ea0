package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/forward/internal/half"
	"github.com/born-ml/forward/internal/tensor"
)

// SelfAttention computes causal grouped-query attention.
//
// Shapes: q and out [qLen, nHeads, headDim], k and v [kvLen, nKVHeads, headDim].
// Query head h reads key/value head h / (nHeads / nKVHeads). Key position ki
// is visible to query position qi when ki <= qi + (kvLen - qLen), which aligns
// the last qLen keys with the queries when a cached prefix precedes them.
// Rows with no visible key are written as zeros.
//
// nHeads must be a multiple of nKVHeads.
func SelfAttention(out, q, k, v []byte, dtype tensor.DataType, qLen, kvLen, nHeads, nKVHeads, headDim int, scale float32) error {
	qn := qLen * nHeads * headDim
	kvn := kvLen * nKVHeads * headDim
	switch dtype {
	case tensor.Float32:
		attentionTyped(as[float32](out, qn), as[float32](q, qn), as[float32](k, kvn), as[float32](v, kvn),
			qLen, kvLen, nHeads, nKVHeads, headDim, scale)
	case tensor.Float16:
		attentionTyped(as[half.Float16](out, qn), as[half.Float16](q, qn), as[half.Float16](k, kvn), as[half.Float16](v, kvn),
			qLen, kvLen, nHeads, nKVHeads, headDim, scale)
	case tensor.BFloat16:
		attentionTyped(as[half.BFloat16](out, qn), as[half.BFloat16](q, qn), as[half.BFloat16](k, kvn), as[half.BFloat16](v, kvn),
			qLen, kvLen, nHeads, nKVHeads, headDim, scale)
	default:
		return unsupported("self_attention", dtype)
	}
	return nil
}

func attentionTyped[T Float](out, q, k, v []T, qLen, kvLen, nHeads, nKVHeads, headDim int, scale float32) {
	if qLen == 0 || nHeads == 0 || headDim == 0 {
		return
	}
	groupSize := nHeads / nKVHeads
	offset := kvLen - qLen

	// Every entry up to the causal limit is rewritten for each (qi, h).
	scores := make([]float32, kvLen)
	acc := make([]float32, headDim)

	for qi := range qLen {
		// Keys [0, visible) are unmasked for this query position.
		visible := min(max(qi+offset+1, 0), kvLen)

		for h := range nHeads {
			kvHead := h / groupSize
			qRow := q[(qi*nHeads+h)*headDim:][:headDim]
			oRow := out[(qi*nHeads+h)*headDim:][:headDim]

			if visible == 0 {
				for d := range oRow {
					oRow[d] = narrow[T](0)
				}
				continue
			}

			maxScore := math32.Inf(-1)
			for ki := range visible {
				kRow := k[(ki*nKVHeads+kvHead)*headDim:][:headDim]
				var dot float32
				for d, qv := range qRow {
					dot += widen(qv) * widen(kRow[d])
				}
				s := dot * scale
				scores[ki] = s
				if s > maxScore {
					maxScore = s
				}
			}

			var sum float32
			for ki := range visible {
				e := math32.Exp(scores[ki] - maxScore)
				scores[ki] = e
				sum += e
			}

			clear(acc)
			for ki := range visible {
				p := scores[ki] / sum
				vRow := v[(ki*nKVHeads+kvHead)*headDim:][:headDim]
				for d, vv := range vRow {
					acc[d] += p * widen(vv)
				}
			}
			for d, a := range acc {
				oRow[d] = narrow[T](a)
			}
		}
	}
}
