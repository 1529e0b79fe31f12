package gusparse

// NNZ counting engine: one parallel pass over a dense matrix produces
// per-row or per-column non-zero counts, then a parallel reduction folds
// them into a single total.

// Nnz counts the non-zero entries of the m by n column-major dense matrix
// dA (leading dimension ld), writing one count per row or per column into
// nnzPerRowCol according to dir, and the aggregate into nnzTotal.
//
// When either dimension is zero the call succeeds immediately with the
// total forced to zero; this happens before pointer validation, so nil
// buffers are tolerated in the degenerate case.
func Nnz[T Scalar](h *Handle, dir Direction, m, n int, descr *MatDescr,
	dA DevicePtr, ld int, nnzPerRowCol DevicePtr, nnzTotal *int32) error {

	const op = "Nnz"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "dir", dir, "m", m, "n", n, "ld", ld)

	if !dir.valid() {
		return errInvalidValue(op, "invalid direction")
	}
	if m < 0 || n < 0 || ld < m {
		return errInvalidSize(op, "negative dimension or ld < m")
	}

	// Quick return, before checking for invalid pointers.
	if m == 0 || n == 0 {
		if nnzTotal != nil {
			h.writeInt32(nnzTotal, 0)
		}
		return nil
	}

	if descr == nil {
		return errInvalidPointer(op, "descr")
	}
	if nnzPerRowCol.IsNil() {
		return errInvalidPointer(op, "nnzPerRowCol")
	}
	if dA.IsNil() {
		return errInvalidPointer(op, "A")
	}
	if nnzTotal == nil {
		return errInvalidPointer(op, "nnzTotal")
	}
	if descr.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	nnzCountDenseKernel[T](h, op, dir, m, n, dA, ld, nnzPerRowCol)

	mn := m
	if dir == DirectionColumn {
		mn = n
	}
	return h.reduceTotal(op, nnzPerRowCol, mn, nnzTotal)
}

// nnzCountDenseKernel scans the dense buffer writing per-row or per-column
// counts. Row direction walks a strided row per block; column direction
// walks a contiguous column per block.
func nnzCountDenseKernel[T Scalar](h *Handle, op string, dir Direction,
	m, n int, dA DevicePtr, ld int, counts DevicePtr) {

	var zero T
	switch dir {
	case DirectionRow:
		h.launchBlocks(op, func(blockIdx Dim3) {
			a := deviceSlice[T](dA, ld*n)
			out := deviceSlice[int32](counts, m)
			row := blockIdx.X
			var count int32
			for j := 0; j < n; j++ {
				if a[row+j*ld] != zero {
					count++
				}
			}
			out[row] = count
		}, Dim3{X: m, Y: 1, Z: 1})

	case DirectionColumn:
		h.launchBlocks(op, func(blockIdx Dim3) {
			a := deviceSlice[T](dA, ld*n)
			out := deviceSlice[int32](counts, n)
			col := blockIdx.X
			base := col * ld
			var count int32
			for i := 0; i < m; i++ {
				if a[base+i] != zero {
					count++
				}
			}
			out[col] = count
		}, Dim3{X: n, Y: 1, Z: 1})
	}
}
