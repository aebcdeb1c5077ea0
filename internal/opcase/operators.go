package opcase

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/forward/internal/ops"
	"github.com/born-ml/forward/internal/tensor"
)

// Defaults for unset Params.
const (
	defaultEps   float32 = 1e-6
	defaultTheta float32 = 10000
)

type tensors map[string]*tensor.Tensor

type operator struct {
	inputs   []string
	optional []string
	outputs  []string
	index    map[string]bool
	call     func(t tensors, p Params) error
}

var operators = map[string]operator{
	"argmax": {
		inputs:  []string{"vals"},
		outputs: []string{"max_idx", "max_val"},
		index:   map[string]bool{"max_idx": true},
		call: func(t tensors, _ Params) error {
			return ops.Argmax(t["max_idx"], t["max_val"], t["vals"])
		},
	},
	"embedding": {
		inputs:  []string{"index", "weight"},
		outputs: []string{"out"},
		index:   map[string]bool{"index": true},
		call: func(t tensors, _ Params) error {
			return ops.Embedding(t["out"], t["index"], t["weight"])
		},
	},
	"linear": {
		inputs:   []string{"in", "weight", "bias"},
		optional: []string{"bias"},
		outputs:  []string{"out"},
		call: func(t tensors, _ Params) error {
			return ops.Linear(t["out"], t["in"], t["weight"], t["bias"])
		},
	},
	"rms_norm": {
		inputs:  []string{"in", "weight"},
		outputs: []string{"out"},
		call: func(t tensors, p Params) error {
			return ops.RMSNorm(t["out"], t["in"], t["weight"], valueOr(p.Eps, defaultEps))
		},
	},
	"rope": {
		inputs:  []string{"in", "pos_ids"},
		outputs: []string{"out"},
		index:   map[string]bool{"pos_ids": true},
		call: func(t tensors, p Params) error {
			return ops.RoPE(t["out"], t["in"], t["pos_ids"], valueOr(p.Theta, defaultTheta))
		},
	},
	"self_attention": {
		inputs:  []string{"q", "k", "v"},
		outputs: []string{"attn_val"},
		call: func(t tensors, p Params) error {
			scale := float32(1)
			if q := t["q"].Shape(); len(q) == 3 && q[2] > 0 {
				scale = 1 / math32.Sqrt(float32(q[2]))
			}
			return ops.SelfAttention(t["attn_val"], t["q"], t["k"], t["v"], valueOr(p.Scale, scale))
		},
	},
	"swiglu": {
		inputs:  []string{"gate", "up"},
		outputs: []string{"out"},
		call: func(t tensors, _ Params) error {
			return ops.SwiGLU(t["out"], t["gate"], t["up"])
		},
	},
}

func valueOr(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}
