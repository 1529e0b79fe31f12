package gusparse

// Scalar input/output conventions. Every operation producing a count or
// scalar result honors the handle's pointer mode: host mode completes the
// write before the call returns, device mode enqueues it on the stream.
// Scalar inputs (alpha, beta) are captured at call time in host mode and
// dereferenced at kernel execution time in device mode.

// writeInt32 writes a known value to a scalar output respecting pointer
// mode. Used by quick-return paths where the result is forced to zero.
func (h *Handle) writeInt32(out *int32, v int32) {
	if h.pointerMode == PointerModeDevice {
		h.stream.Submit(func() { *out = v })
		return
	}
	*out = v
}

// copyOutInt32 moves a device-resident result cell to a scalar output. In
// host mode this synchronizes the stream up to the copy; in device mode the
// copy is enqueued and the call returns immediately.
func (h *Handle) copyOutInt32(out *int32, src DevicePtr) error {
	if h.pointerMode == PointerModeDevice {
		h.stream.Submit(func() { *out = src.Int32()[0] })
		return h.stream.Err()
	}
	if err := h.stream.Synchronize(); err != nil {
		return err
	}
	*out = src.Int32()[0]
	return nil
}

// scalarArg defers a scalar input per pointer mode: host mode snapshots the
// value at call time, device mode keeps the pointer so kernels observe the
// value current when they execute.
type scalarArg[T Scalar] struct {
	ptr *T
	val T
}

func newScalarArg[T Scalar](h *Handle, p *T) scalarArg[T] {
	if h.pointerMode == PointerModeDevice {
		return scalarArg[T]{ptr: p}
	}
	return scalarArg[T]{val: *p}
}

// get resolves the scalar. Called inside kernels, never on the host path.
func (s scalarArg[T]) get() T {
	if s.ptr != nil {
		return *s.ptr
	}
	return s.val
}
