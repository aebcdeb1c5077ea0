package tensor

// Views share storage with their source and never copy data. Each new view
// holds its own reference to the storage and must be released.

// newView checks that every element addressed by meta at offset lies inside
// the storage, then returns a view holding a new reference.
func (t *Tensor) newView(op string, meta Meta, offset int) (*Tensor, error) {
	if t.storage.released() {
		return nil, Errorf(ErrInvalidArgument, op, "storage %s already released", t.storage.id)
	}
	if meta.Shape.NumElements() > 0 {
		lo, hi := meta.span()
		if offset+lo < 0 || offset+hi > t.storage.size {
			return nil, Errorf(ErrInvalidArgument, op,
				"view bytes [%d, %d) outside storage of %d bytes", offset+lo, offset+hi, t.storage.size)
		}
	} else if offset < 0 || offset > t.storage.size {
		return nil, Errorf(ErrInvalidArgument, op,
			"view offset %d outside storage of %d bytes", offset, t.storage.size)
	}
	t.storage.retain()
	return &Tensor{meta: meta, storage: t.storage, offset: offset}, nil
}

// Permute reorders the dimensions: result dim i is source dim order[i].
// order must be a permutation of 0..NDim()-1.
func (t *Tensor) Permute(order ...int) (*Tensor, error) {
	ndim := t.NDim()
	if len(order) != ndim {
		return nil, Errorf(ErrInvalidArgument, "permute", "order has %d axes, tensor has %d", len(order), ndim)
	}

	seen := make([]bool, ndim)
	meta := Meta{
		DType:   t.meta.DType,
		Shape:   make(Shape, ndim),
		Strides: make([]int, ndim),
	}
	for i, axis := range order {
		if axis < 0 || axis >= ndim {
			return nil, Errorf(ErrInvalidArgument, "permute", "axis %d out of range [0, %d)", axis, ndim)
		}
		if seen[axis] {
			return nil, Errorf(ErrInvalidArgument, "permute", "duplicate axis %d in %v", axis, order)
		}
		seen[axis] = true
		meta.Shape[i] = t.meta.Shape[axis]
		meta.Strides[i] = t.meta.Strides[axis]
	}

	return t.newView("permute", meta, t.offset)
}

// Slice narrows dimension dim to the half-open range [start, end).
func (t *Tensor) Slice(dim, start, end int) (*Tensor, error) {
	if dim < 0 || dim >= t.NDim() {
		return nil, Errorf(ErrInvalidArgument, "slice", "dim %d out of range [0, %d)", dim, t.NDim())
	}
	if start < 0 || start > end || end > t.meta.Shape[dim] {
		return nil, Errorf(ErrInvalidArgument, "slice",
			"range [%d, %d) invalid for dim %d of extent %d", start, end, dim, t.meta.Shape[dim])
	}

	meta := t.meta.clone()
	meta.Shape[dim] = end - start
	offset := t.offset + start*t.meta.Strides[dim]*t.ElementSize()

	return t.newView("slice", meta, offset)
}

// View reinterprets a contiguous tensor with a new shape of the same
// element count.
func (t *Tensor) View(shape ...int) (*Tensor, error) {
	newShape := Shape(shape).Clone()
	if err := newShape.Validate(); err != nil {
		return nil, Errorf(ErrInvalidArgument, "view", "%v", err)
	}
	if newShape.NumElements() != t.NumElements() {
		return nil, Errorf(ErrInvalidArgument, "view",
			"cannot view %v (%d elements) as %v (%d elements)",
			t.meta.Shape, t.NumElements(), newShape, newShape.NumElements())
	}
	if !t.IsContiguous() {
		return nil, Errorf(ErrInvalidArgument, "view", "tensor with strides %v is not contiguous", t.meta.Strides)
	}

	meta := Meta{
		DType:   t.meta.DType,
		Shape:   newShape,
		Strides: newShape.ComputeStrides(),
	}
	return t.newView("view", meta, t.offset)
}
