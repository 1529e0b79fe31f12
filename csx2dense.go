package gusparse

// Compressed-to-dense conversion. The destination window is zero-filled
// asynchronously, then a scatter kernel writes each compressed entry to its
// dense coordinate. Dense matrices are column-major with leading dimension
// ld >= m.

// Csr2dense scatters an m by n CSR matrix into the dense buffer dA.
func Csr2dense[T Scalar](h *Handle, m, n int, descr *MatDescr,
	csrVal, csrRowPtr, csrColInd DevicePtr, dA DevicePtr, lda int) error {
	return csx2dense[T]("Csr2dense", h, DirectionRow, m, n, descr,
		csrVal, csrRowPtr, csrColInd, dA, lda)
}

// Csc2dense scatters an m by n CSC matrix into the dense buffer dA.
func Csc2dense[T Scalar](h *Handle, m, n int, descr *MatDescr,
	cscVal, cscColPtr, cscRowInd DevicePtr, dA DevicePtr, lda int) error {
	return csx2dense[T]("Csc2dense", h, DirectionColumn, m, n, descr,
		cscVal, cscColPtr, cscRowInd, dA, lda)
}

func csx2dense[T Scalar](op string, h *Handle, dir Direction, m, n int,
	descr *MatDescr, csxVal, csxPtr, csxInd DevicePtr, dA DevicePtr, lda int) error {

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "lda", lda)

	if m < 0 || n < 0 || lda < m {
		return errInvalidSize(op, "negative dimension or lda < m")
	}

	// Quick return, before checking for invalid pointers; no buffer is
	// touched.
	if m == 0 || n == 0 {
		return nil
	}

	if descr == nil {
		return errInvalidPointer(op, "descr")
	}
	if dA.IsNil() {
		return errInvalidPointer(op, "A")
	}
	if csxPtr.IsNil() {
		return errInvalidPointer(op, "offset array")
	}
	if csxInd.IsNil() {
		return errInvalidPointer(op, "index array")
	}
	if csxVal.IsNil() {
		return errInvalidPointer(op, "value array")
	}
	if descr.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	memsetDense2D[T](h, op, m, n, dA, lda)

	base := int32(descr.IndexBase())
	rowsPerBlock := h.tuning.DenseRowsPerBlock
	const wave = DenseConvWavefrontSize

	switch dir {
	case DirectionRow:
		blocks := (m-1)/rowsPerBlock + 1
		h.launchKernel(op, func(tid ThreadID) {
			row := tid.Global()
			if row >= m {
				return
			}
			ptr := deviceSlice[int32](csxPtr, m+1)
			ind := deviceSlice[int32](csxInd, int(ptr[m]-base))
			val := deviceSlice[T](csxVal, int(ptr[m]-base))
			a := deviceSlice[T](dA, lda*n)

			start := int(ptr[row] - base)
			end := int(ptr[row+1] - base)
			for lane := 0; lane < wave; lane++ {
				for k := start + lane; k < end; k += wave {
					col := int(ind[k] - base)
					a[row+col*lda] = val[k]
				}
			}
		}, Dim3{X: blocks, Y: 1, Z: 1}, Dim3{X: rowsPerBlock, Y: 1, Z: 1})

	case DirectionColumn:
		blocks := (n-1)/rowsPerBlock + 1
		h.launchKernel(op, func(tid ThreadID) {
			col := tid.Global()
			if col >= n {
				return
			}
			ptr := deviceSlice[int32](csxPtr, n+1)
			ind := deviceSlice[int32](csxInd, int(ptr[n]-base))
			val := deviceSlice[T](csxVal, int(ptr[n]-base))
			a := deviceSlice[T](dA, lda*n)

			start := int(ptr[col] - base)
			end := int(ptr[col+1] - base)
			for lane := 0; lane < wave; lane++ {
				for k := start + lane; k < end; k += wave {
					row := int(ind[k] - base)
					a[row+col*lda] = val[k]
				}
			}
		}, Dim3{X: blocks, Y: 1, Z: 1}, Dim3{X: rowsPerBlock, Y: 1, Z: 1})
	}

	return h.stream.Err()
}

// memsetDense2D zero-fills the m by n window of a column-major dense
// buffer, honoring the leading dimension. Enqueued asynchronously ahead of
// the scatter kernel.
func memsetDense2D[T Scalar](h *Handle, op string, m, n int, dA DevicePtr, lda int) {
	var zero T
	h.launchBlocks(op, func(blockIdx Dim3) {
		a := deviceSlice[T](dA, lda*n)
		col := blockIdx.X * lda
		for i := 0; i < m; i++ {
			a[col+i] = zero
		}
	}, Dim3{X: n, Y: 1, Z: 1})
}
