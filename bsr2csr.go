package gusparse

// Bsr2csr expands an mb by nb block matrix with blockDim by blockDim blocks
// back into CSR. Every cell of every present block is written explicitly,
// zeros included, so the output has mb*blockDim rows and
// nnzb*blockDim*blockDim entries; a compression pass recovers the original
// sparsity.
func Bsr2csr[T Scalar](h *Handle, dir Direction, mb, nb int, descrA *MatDescr,
	bsrVal, bsrRowPtr, bsrColInd DevicePtr, blockDim int, descrC *MatDescr,
	csrVal, csrRowPtr, csrColInd DevicePtr) error {

	const op = "Bsr2csr"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "dir", dir, "mb", mb, "nb", nb, "blockDim", blockDim)

	if !dir.valid() {
		return errInvalidValue(op, "invalid direction")
	}
	if mb < 0 || nb < 0 || blockDim <= 0 {
		return errInvalidSize(op, "negative dimension or non-positive block dimension")
	}

	// Quick return, before checking for invalid pointers.
	if mb == 0 || nb == 0 {
		return nil
	}

	if descrA == nil || descrC == nil {
		return errInvalidPointer(op, "descr")
	}
	if bsrVal.IsNil() || bsrRowPtr.IsNil() || bsrColInd.IsNil() {
		return errInvalidPointer(op, "bsr arrays")
	}
	if csrVal.IsNil() || csrRowPtr.IsNil() || csrColInd.IsNil() {
		return errInvalidPointer(op, "csr arrays")
	}
	if descrA.MatrixType() != MatrixTypeGeneral || descrC.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	m := mb * blockDim
	baseA := int32(descrA.IndexBase())
	baseC := int32(descrC.IndexBase())
	bd2 := blockDim * blockDim

	// Row pointers: every row of block row bi holds blocksInRow*blockDim
	// entries.
	h.launchBlocks(op, func(Dim3) {
		brPtr := deviceSlice[int32](bsrRowPtr, mb+1)
		ptr := deviceSlice[int32](csrRowPtr, m+1)
		ptr[0] = baseC
		for bi := 0; bi < mb; bi++ {
			width := (brPtr[bi+1] - brPtr[bi]) * int32(blockDim)
			for r := bi * blockDim; r < (bi+1)*blockDim; r++ {
				ptr[r+1] = ptr[r] + width
			}
		}
	}, Dim3{X: 1, Y: 1, Z: 1})

	// One block per block row expands its blocks in ascending column
	// order.
	h.launchBlocks(op, func(blockIdx Dim3) {
		brPtr := deviceSlice[int32](bsrRowPtr, mb+1)
		nnzb := int(brPtr[mb] - baseA)
		brCol := deviceSlice[int32](bsrColInd, nnzb)
		brVal := deviceSlice[T](bsrVal, nnzb*bd2)

		ptr := deviceSlice[int32](csrRowPtr, m+1)
		nnz := int(ptr[m] - baseC)
		cols := deviceSlice[int32](csrColInd, nnz)
		vals := deviceSlice[T](csrVal, nnz)

		bi := blockIdx.X
		blockStart := int(brPtr[bi] - baseA)
		blockEnd := int(brPtr[bi+1] - baseA)

		for rLocal := 0; rLocal < blockDim; rLocal++ {
			r := bi*blockDim + rLocal
			dst := int(ptr[r] - baseC)
			for blk := blockStart; blk < blockEnd; blk++ {
				bc := int(brCol[blk] - baseA)
				for cLocal := 0; cLocal < blockDim; cLocal++ {
					var local int
					if dir == DirectionRow {
						local = rLocal*blockDim + cLocal
					} else {
						local = cLocal*blockDim + rLocal
					}
					cols[dst] = int32(bc*blockDim+cLocal) + baseC
					vals[dst] = brVal[blk*bd2+local]
					dst++
				}
			}
		}
	}, Dim3{X: mb, Y: 1, Z: 1})

	return h.stream.Err()
}
