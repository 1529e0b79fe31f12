package gusparse

// Dense-to-compressed conversion, the fill phase paired with Nnz: callers
// first obtain per-row (or per-column) counts from Nnz, allocate the
// compressed arrays from the total, and then run the fill pass here.

// Dense2csr converts the m by n column-major dense matrix dA into CSR.
// nnzPerRow must hold the per-row counts previously computed by Nnz with
// DirectionRow.
func Dense2csr[T Scalar](h *Handle, m, n int, descr *MatDescr,
	dA DevicePtr, lda int, nnzPerRow DevicePtr,
	csrVal, csrRowPtr, csrColInd DevicePtr) error {
	return dense2csx[T]("Dense2csr", h, DirectionRow, m, n, descr,
		dA, lda, nnzPerRow, csrVal, csrRowPtr, csrColInd)
}

// Dense2csc converts the m by n column-major dense matrix dA into CSC.
// nnzPerColumn must hold the per-column counts previously computed by Nnz
// with DirectionColumn.
func Dense2csc[T Scalar](h *Handle, m, n int, descr *MatDescr,
	dA DevicePtr, lda int, nnzPerColumn DevicePtr,
	cscVal, cscColPtr, cscRowInd DevicePtr) error {
	return dense2csx[T]("Dense2csc", h, DirectionColumn, m, n, descr,
		dA, lda, nnzPerColumn, cscVal, cscColPtr, cscRowInd)
}

func dense2csx[T Scalar](op string, h *Handle, dir Direction, m, n int,
	descr *MatDescr, dA DevicePtr, lda int, counts DevicePtr,
	csxVal, csxPtr, csxInd DevicePtr) error {

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "lda", lda)

	if m < 0 || n < 0 || lda < m {
		return errInvalidSize(op, "negative dimension or lda < m")
	}

	// Quick return, before checking for invalid pointers.
	if m == 0 || n == 0 {
		return nil
	}

	if descr == nil {
		return errInvalidPointer(op, "descr")
	}
	if dA.IsNil() {
		return errInvalidPointer(op, "A")
	}
	if counts.IsNil() {
		return errInvalidPointer(op, "counts")
	}
	if csxVal.IsNil() || csxPtr.IsNil() || csxInd.IsNil() {
		return errInvalidPointer(op, "output arrays")
	}
	if descr.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	base := int32(descr.IndexBase())
	var zero T

	// Row direction walks a[i + j*lda] along j; column direction walks
	// a[j + i*lda]. Expressed as an offset multiplier and stride so the
	// gather loop itself is direction-free.
	major, minor := m, n
	offMul, stride := 1, lda
	if dir == DirectionColumn {
		major, minor = n, m
		offMul, stride = lda, 1
	}

	// Prefix the counts into the offset array.
	h.launchBlocks(op, func(Dim3) {
		c := deviceSlice[int32](counts, major)
		ptr := deviceSlice[int32](csxPtr, major+1)
		ptr[0] = base
		for i := 0; i < major; i++ {
			ptr[i+1] = ptr[i] + c[i]
		}
	}, Dim3{X: 1, Y: 1, Z: 1})

	// One block per row (or column) gathers its surviving entries in
	// ascending index order.
	h.launchBlocks(op, func(blockIdx Dim3) {
		a := deviceSlice[T](dA, lda*n)
		ptr := deviceSlice[int32](csxPtr, major+1)
		nnz := int(ptr[major] - base)
		val := deviceSlice[T](csxVal, nnz)
		ind := deviceSlice[int32](csxInd, nnz)

		i := blockIdx.X
		dst := int(ptr[i] - base)
		pos := i * offMul
		for j := 0; j < minor; j++ {
			v := a[pos+j*stride]
			if v != zero {
				val[dst] = v
				ind[dst] = int32(j) + base
				dst++
			}
		}
	}, Dim3{X: major, Y: 1, Z: 1})

	return h.stream.Err()
}
