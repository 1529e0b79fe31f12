package gusparse

// CSR to BSR conversion, two-phase: Csr2bsrNnz sizes the output (block row
// pointers and total populated blocks), Csr2bsr fills block values after
// the caller has allocated from that sizing. Block grid is Mb = ceil(m/bd)
// by Nb = ceil(n/bd); partially covered blocks are zero-filled. The
// direction selects row-major or column-major layout within each block.

// Csr2bsrNnz computes the number of populated blocks per block row, writing
// the prefixed block row pointer array (in descrC's base) and the total
// block count into bsrNnz respecting pointer mode.
func Csr2bsrNnz(h *Handle, dir Direction, m, n int, descrA *MatDescr,
	csrRowPtr, csrColInd DevicePtr, blockDim int, descrC *MatDescr,
	bsrRowPtr DevicePtr, bsrNnz *int32) error {

	const op = "Csr2bsrNnz"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "dir", dir, "m", m, "n", n, "blockDim", blockDim)

	if !dir.valid() {
		return errInvalidValue(op, "invalid direction")
	}
	if m < 0 || n < 0 || blockDim <= 0 {
		return errInvalidSize(op, "negative dimension or non-positive block dimension")
	}

	// Quick return, before checking for invalid pointers.
	if m == 0 || n == 0 {
		if bsrNnz != nil {
			h.writeInt32(bsrNnz, 0)
		}
		return nil
	}

	if descrA == nil || descrC == nil {
		return errInvalidPointer(op, "descr")
	}
	if csrRowPtr.IsNil() || csrColInd.IsNil() {
		return errInvalidPointer(op, "csr arrays")
	}
	if bsrRowPtr.IsNil() {
		return errInvalidPointer(op, "bsrRowPtr")
	}
	if bsrNnz == nil {
		return errInvalidPointer(op, "bsrNnz")
	}
	if descrA.MatrixType() != MatrixTypeGeneral || descrC.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	mb := (m + blockDim - 1) / blockDim
	nb := (n + blockDim - 1) / blockDim
	baseA := int32(descrA.IndexBase())
	baseC := int32(descrC.IndexBase())

	// Per block row: count distinct populated block columns. The count is
	// staged in bsrRowPtr[bi+1] and prefixed below.
	h.launchBlocks(op, func(blockIdx Dim3) {
		rowPtr := deviceSlice[int32](csrRowPtr, m+1)
		colInd := deviceSlice[int32](csrColInd, int(rowPtr[m]-baseA))
		out := deviceSlice[int32](bsrRowPtr, mb+1)

		bi := blockIdx.X
		seen := make([]bool, nb)
		var count int32

		rowEnd := (bi + 1) * blockDim
		if rowEnd > m {
			rowEnd = m
		}
		for r := bi * blockDim; r < rowEnd; r++ {
			for k := int(rowPtr[r] - baseA); k < int(rowPtr[r+1]-baseA); k++ {
				bc := int(colInd[k]-baseA) / blockDim
				if !seen[bc] {
					seen[bc] = true
					count++
				}
			}
		}
		out[bi+1] = count
	}, Dim3{X: mb, Y: 1, Z: 1})

	// Prefix into block row pointers and stage the total for copy-out.
	result, temporary, err := h.borrowScratch(op, 4)
	if err != nil {
		return err
	}
	h.launchBlocks(op, func(Dim3) {
		out := deviceSlice[int32](bsrRowPtr, mb+1)
		out[0] = baseC
		for i := 1; i <= mb; i++ {
			out[i] += out[i-1]
		}
		deviceSlice[int32](result, 1)[0] = out[mb] - baseC
	}, Dim3{X: 1, Y: 1, Z: 1})

	err = h.copyOutInt32(bsrNnz, result)
	h.releaseScratch(result, temporary)
	return err
}

// Csr2bsr fills the BSR block values and block column indices previously
// sized by Csr2bsrNnz. Cells of partially populated blocks are zeroed.
func Csr2bsr[T Scalar](h *Handle, dir Direction, m, n int, descrA *MatDescr,
	csrVal, csrRowPtr, csrColInd DevicePtr, blockDim int, descrC *MatDescr,
	bsrVal, bsrRowPtr, bsrColInd DevicePtr) error {

	const op = "Csr2bsr"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "dir", dir, "m", m, "n", n, "blockDim", blockDim)

	if !dir.valid() {
		return errInvalidValue(op, "invalid direction")
	}
	if m < 0 || n < 0 || blockDim <= 0 {
		return errInvalidSize(op, "negative dimension or non-positive block dimension")
	}

	// Quick return, before checking for invalid pointers.
	if m == 0 || n == 0 {
		return nil
	}

	if descrA == nil || descrC == nil {
		return errInvalidPointer(op, "descr")
	}
	if csrVal.IsNil() || csrRowPtr.IsNil() || csrColInd.IsNil() {
		return errInvalidPointer(op, "csr arrays")
	}
	if bsrVal.IsNil() || bsrRowPtr.IsNil() || bsrColInd.IsNil() {
		return errInvalidPointer(op, "bsr arrays")
	}
	if descrA.MatrixType() != MatrixTypeGeneral || descrC.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	mb := (m + blockDim - 1) / blockDim
	nb := (n + blockDim - 1) / blockDim
	baseA := int32(descrA.IndexBase())
	baseC := int32(descrC.IndexBase())
	bd2 := blockDim * blockDim

	h.launchBlocks(op, func(blockIdx Dim3) {
		rowPtr := deviceSlice[int32](csrRowPtr, m+1)
		nnz := int(rowPtr[m] - baseA)
		colInd := deviceSlice[int32](csrColInd, nnz)
		vals := deviceSlice[T](csrVal, nnz)

		brPtr := deviceSlice[int32](bsrRowPtr, mb+1)
		nnzb := int(brPtr[mb] - baseC)
		brCol := deviceSlice[int32](bsrColInd, nnzb)
		brVal := deviceSlice[T](bsrVal, nnzb*bd2)

		bi := blockIdx.X
		blockStart := int(brPtr[bi] - baseC)
		blockEnd := int(brPtr[bi+1] - baseC)

		// Rebuild the sorted distinct block columns of this block row.
		seen := make([]bool, nb)
		rowEnd := (bi + 1) * blockDim
		if rowEnd > m {
			rowEnd = m
		}
		for r := bi * blockDim; r < rowEnd; r++ {
			for k := int(rowPtr[r] - baseA); k < int(rowPtr[r+1]-baseA); k++ {
				seen[int(colInd[k]-baseA)/blockDim] = true
			}
		}
		pos := blockStart
		for bc := 0; bc < nb; bc++ {
			if seen[bc] {
				brCol[pos] = int32(bc) + baseC
				pos++
			}
		}

		// Zero the block payloads, then scatter values to their
		// block-relative offsets.
		var zero T
		for i := blockStart * bd2; i < blockEnd*bd2; i++ {
			brVal[i] = zero
		}
		for r := bi * blockDim; r < rowEnd; r++ {
			rLocal := r - bi*blockDim
			for k := int(rowPtr[r] - baseA); k < int(rowPtr[r+1]-baseA); k++ {
				c := int(colInd[k] - baseA)
				bc := c / blockDim
				cLocal := c % blockDim

				blk := searchBlockColumn(brCol[blockStart:blockEnd], int32(bc)+baseC) + blockStart
				var local int
				if dir == DirectionRow {
					local = rLocal*blockDim + cLocal
				} else {
					local = cLocal*blockDim + rLocal
				}
				brVal[blk*bd2+local] = vals[k]
			}
		}
	}, Dim3{X: mb, Y: 1, Z: 1})

	return h.stream.Err()
}

// searchBlockColumn finds want in the sorted block column slice.
func searchBlockColumn(cols []int32, want int32) int {
	lo, hi := 0, len(cols)
	for lo < hi {
		mid := (lo + hi) / 2
		if cols[mid] < want {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
