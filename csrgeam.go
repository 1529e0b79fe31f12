package gusparse

// Matrix addition engine: C = alpha*A + beta*B over CSR matrices with
// identical dimensions. Two-phase: CsrgeamNnz merges the sorted column
// sets of corresponding rows to size C, Csrgeam re-merges writing column
// indices and combined values.

// CsrgeamNnz computes C's row pointer array and total non-zero count. A
// column present in A, B, or both contributes exactly one entry to its
// row of C.
func CsrgeamNnz(h *Handle, m, n int,
	descrA *MatDescr, nnzA int, csrRowPtrA, csrColIndA DevicePtr,
	descrB *MatDescr, nnzB int, csrRowPtrB, csrColIndB DevicePtr,
	descrC *MatDescr, csrRowPtrC DevicePtr, nnzC *int32) error {

	const op = "CsrgeamNnz"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "nnzA", nnzA, "nnzB", nnzB)

	if descrA == nil || descrB == nil || descrC == nil {
		return errInvalidPointer(op, "descr")
	}
	if m < 0 || n < 0 || nnzA < 0 || nnzB < 0 {
		return errInvalidSize(op, "negative dimension or nnz")
	}

	// Quick return, before the remaining pointer checks.
	if m == 0 || n == 0 {
		if nnzC != nil {
			h.writeInt32(nnzC, 0)
		}
		return nil
	}

	if csrRowPtrA.IsNil() || csrColIndA.IsNil() {
		return errInvalidPointer(op, "csr arrays of A")
	}
	if csrRowPtrB.IsNil() || csrColIndB.IsNil() {
		return errInvalidPointer(op, "csr arrays of B")
	}
	if csrRowPtrC.IsNil() {
		return errInvalidPointer(op, "csrRowPtrC")
	}
	if nnzC == nil {
		return errInvalidPointer(op, "nnzC")
	}
	if descrA.MatrixType() != MatrixTypeGeneral ||
		descrB.MatrixType() != MatrixTypeGeneral ||
		descrC.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	baseA := int32(descrA.IndexBase())
	baseB := int32(descrB.IndexBase())
	baseC := int32(descrC.IndexBase())

	// Per row: count the union of the two sorted column sets. Staged in
	// csrRowPtrC[row+1], prefixed below.
	h.launchBlocks(op, func(blockIdx Dim3) {
		rowPtrA := deviceSlice[int32](csrRowPtrA, m+1)
		colIndA := deviceSlice[int32](csrColIndA, nnzA)
		rowPtrB := deviceSlice[int32](csrRowPtrB, m+1)
		colIndB := deviceSlice[int32](csrColIndB, nnzB)
		out := deviceSlice[int32](csrRowPtrC, m+1)

		row := blockIdx.X
		ka := int(rowPtrA[row] - baseA)
		kaEnd := int(rowPtrA[row+1] - baseA)
		kb := int(rowPtrB[row] - baseB)
		kbEnd := int(rowPtrB[row+1] - baseB)

		var count int32
		for ka < kaEnd || kb < kbEnd {
			switch {
			case kb >= kbEnd:
				ka++
			case ka >= kaEnd:
				kb++
			default:
				ca := colIndA[ka] - baseA
				cb := colIndB[kb] - baseB
				if ca < cb {
					ka++
				} else if cb < ca {
					kb++
				} else {
					ka++
					kb++
				}
			}
			count++
		}
		out[row+1] = count
	}, Dim3{X: m, Y: 1, Z: 1})

	// Prefix into C's row pointers and stage the total.
	result, temporary, err := h.borrowScratch(op, 4)
	if err != nil {
		return err
	}
	h.launchBlocks(op, func(Dim3) {
		out := deviceSlice[int32](csrRowPtrC, m+1)
		out[0] = baseC
		for i := 1; i <= m; i++ {
			out[i] += out[i-1]
		}
		deviceSlice[int32](result, 1)[0] = out[m] - baseC
	}, Dim3{X: 1, Y: 1, Z: 1})

	err = h.copyOutInt32(nnzC, result)
	h.releaseScratch(result, temporary)
	return err
}

// Csrgeam fills C's column indices and values from the sizing CsrgeamNnz
// produced. Scalars alpha and beta follow the handle's pointer mode:
// device-resident scalars are dereferenced when the kernel executes.
func Csrgeam[T Scalar](h *Handle, m, n int, alpha *T,
	descrA *MatDescr, nnzA int, csrValA, csrRowPtrA, csrColIndA DevicePtr,
	beta *T,
	descrB *MatDescr, nnzB int, csrValB, csrRowPtrB, csrColIndB DevicePtr,
	descrC *MatDescr, csrValC, csrRowPtrC, csrColIndC DevicePtr) error {

	const op = "Csrgeam"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "nnzA", nnzA, "nnzB", nnzB)

	if descrA == nil || descrB == nil || descrC == nil {
		return errInvalidPointer(op, "descr")
	}
	if m < 0 || n < 0 || nnzA < 0 || nnzB < 0 {
		return errInvalidSize(op, "negative dimension or nnz")
	}

	// Quick return, before the remaining pointer checks.
	if m == 0 || n == 0 {
		return nil
	}

	if alpha == nil || beta == nil {
		return errInvalidPointer(op, "alpha/beta")
	}
	if csrValA.IsNil() || csrRowPtrA.IsNil() || csrColIndA.IsNil() {
		return errInvalidPointer(op, "csr arrays of A")
	}
	if csrValB.IsNil() || csrRowPtrB.IsNil() || csrColIndB.IsNil() {
		return errInvalidPointer(op, "csr arrays of B")
	}
	if csrValC.IsNil() || csrRowPtrC.IsNil() || csrColIndC.IsNil() {
		return errInvalidPointer(op, "csr arrays of C")
	}
	if descrA.MatrixType() != MatrixTypeGeneral ||
		descrB.MatrixType() != MatrixTypeGeneral ||
		descrC.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	baseA := int32(descrA.IndexBase())
	baseB := int32(descrB.IndexBase())
	baseC := int32(descrC.IndexBase())
	alphaArg := newScalarArg(h, alpha)
	betaArg := newScalarArg(h, beta)

	// Per row: re-merge the sorted column sets, combining values where a
	// column appears in both matrices.
	h.launchBlocks(op, func(blockIdx Dim3) {
		rowPtrA := deviceSlice[int32](csrRowPtrA, m+1)
		colIndA := deviceSlice[int32](csrColIndA, nnzA)
		valA := deviceSlice[T](csrValA, nnzA)
		rowPtrB := deviceSlice[int32](csrRowPtrB, m+1)
		colIndB := deviceSlice[int32](csrColIndB, nnzB)
		valB := deviceSlice[T](csrValB, nnzB)

		rowPtrC := deviceSlice[int32](csrRowPtrC, m+1)
		nnzC := int(rowPtrC[m] - baseC)
		colIndC := deviceSlice[int32](csrColIndC, nnzC)
		valC := deviceSlice[T](csrValC, nnzC)

		av := alphaArg.get()
		bv := betaArg.get()

		row := blockIdx.X
		ka := int(rowPtrA[row] - baseA)
		kaEnd := int(rowPtrA[row+1] - baseA)
		kb := int(rowPtrB[row] - baseB)
		kbEnd := int(rowPtrB[row+1] - baseB)
		dst := int(rowPtrC[row] - baseC)

		for ka < kaEnd || kb < kbEnd {
			switch {
			case kb >= kbEnd:
				colIndC[dst] = colIndA[ka] - baseA + baseC
				valC[dst] = av * valA[ka]
				ka++
			case ka >= kaEnd:
				colIndC[dst] = colIndB[kb] - baseB + baseC
				valC[dst] = bv * valB[kb]
				kb++
			default:
				ca := colIndA[ka] - baseA
				cb := colIndB[kb] - baseB
				switch {
				case ca < cb:
					colIndC[dst] = ca + baseC
					valC[dst] = av * valA[ka]
					ka++
				case cb < ca:
					colIndC[dst] = cb + baseC
					valC[dst] = bv * valB[kb]
					kb++
				default:
					colIndC[dst] = ca + baseC
					valC[dst] = av*valA[ka] + bv*valB[kb]
					ka++
					kb++
				}
			}
			dst++
		}
	}, Dim3{X: m, Y: 1, Z: 1})

	return h.stream.Err()
}
