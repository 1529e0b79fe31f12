package gusparse

// Csr2csrCompress is the fill pass paired with NnzCompress: given the
// per-row survivor counts it produced, builds the compressed matrix C by
// copying every entry of A whose magnitude is strictly greater than tol.
// csrRowPtrC is derived from nnzPerRow inside the call; csrValC and
// csrColIndC must be sized from the total NnzCompress reported.
func Csr2csrCompress[T Scalar](h *Handle, m, n int, descrA *MatDescr,
	csrValA, csrRowPtrA, csrColIndA DevicePtr, nnzA int, nnzPerRow DevicePtr,
	csrValC, csrRowPtrC, csrColIndC DevicePtr, tol T) error {

	const op = "Csr2csrCompress"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "nnzA", nnzA)

	if descrA == nil {
		return errInvalidPointer(op, "descrA")
	}
	if m < 0 || n < 0 || nnzA < 0 {
		return errInvalidSize(op, "negative dimension or nnz")
	}
	if realPart(tol) < 0 {
		return errInvalidValue(op, "negative tolerance")
	}

	// Quick return, before the remaining pointer checks.
	if m == 0 || n == 0 {
		return nil
	}

	if csrValA.IsNil() || csrRowPtrA.IsNil() || csrColIndA.IsNil() {
		return errInvalidPointer(op, "csr arrays of A")
	}
	if nnzPerRow.IsNil() {
		return errInvalidPointer(op, "nnzPerRow")
	}
	if csrValC.IsNil() || csrRowPtrC.IsNil() || csrColIndC.IsNil() {
		return errInvalidPointer(op, "csr arrays of C")
	}
	if descrA.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	base := int32(descrA.IndexBase())
	tolMag := realPart(tol)

	// Prefix the survivor counts into C's row pointers.
	h.launchBlocks(op, func(Dim3) {
		counts := deviceSlice[int32](nnzPerRow, m)
		rowPtrC := deviceSlice[int32](csrRowPtrC, m+1)
		rowPtrC[0] = base
		for i := 0; i < m; i++ {
			rowPtrC[i+1] = rowPtrC[i] + counts[i]
		}
	}, Dim3{X: 1, Y: 1, Z: 1})

	// One block per row copies the survivors in order.
	h.launchBlocks(op, func(blockIdx Dim3) {
		rowPtrA := deviceSlice[int32](csrRowPtrA, m+1)
		rowPtrC := deviceSlice[int32](csrRowPtrC, m+1)
		valsA := deviceSlice[T](csrValA, nnzA)
		colsA := deviceSlice[int32](csrColIndA, nnzA)
		valsC := deviceSlice[T](csrValC, int(rowPtrC[m]-base))
		colsC := deviceSlice[int32](csrColIndC, int(rowPtrC[m]-base))

		row := blockIdx.X
		dst := int(rowPtrC[row] - base)
		for k := int(rowPtrA[row] - base); k < int(rowPtrA[row+1]-base); k++ {
			if magnitude(valsA[k]) > tolMag {
				valsC[dst] = valsA[k]
				colsC[dst] = colsA[k]
				dst++
			}
		}
	}, Dim3{X: m, Y: 1, Z: 1})

	return h.stream.Err()
}
