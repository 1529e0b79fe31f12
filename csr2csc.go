package gusparse

// CSR to CSC conversion. A sizing call reports the workspace the
// conversion needs; the conversion builds a permutation mapping output
// position to input index (sorted by destination column, then row) and a
// single parallel gather pass moves the row indices and values through it.

// csr2cscWorkspace describes the layout of the temporary buffer: the
// permutation map and the uncompressed per-entry row indices, then one
// working offset per column.
func csr2cscWorkspace(n, nnz int) int {
	return (2*nnz + n) * 4
}

// Csr2cscBufferSize reports the temporary buffer size in bytes required by
// Csr2csc for a matrix of the given shape.
func Csr2cscBufferSize(h *Handle, m, n, nnz int,
	csrRowPtr, csrColInd DevicePtr, action Action, bufferSize *int) error {

	const op = "Csr2cscBufferSize"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "nnz", nnz)

	if m < 0 || n < 0 || nnz < 0 {
		return errInvalidSize(op, "negative dimension or nnz")
	}

	// Quick return, before checking for invalid pointers. The minimum
	// buffer size keeps a later Malloc valid.
	if m == 0 || n == 0 || nnz == 0 {
		if bufferSize != nil {
			*bufferSize = 4
		}
		return nil
	}

	if csrRowPtr.IsNil() || csrColInd.IsNil() {
		return errInvalidPointer(op, "csr arrays")
	}
	if bufferSize == nil {
		return errInvalidPointer(op, "bufferSize")
	}

	*bufferSize = csr2cscWorkspace(n, nnz)
	return nil
}

// Csr2csc converts an m by n CSR matrix with nnz entries into CSC.
// ActionSymbolic moves only the sparsity pattern; ActionNumeric moves the
// values too. tempBuffer must hold at least the bytes reported by
// Csr2cscBufferSize.
func Csr2csc[T Scalar](h *Handle, m, n, nnz int,
	csrVal, csrRowPtr, csrColInd DevicePtr,
	cscVal, cscRowInd, cscColPtr DevicePtr,
	action Action, base IndexBase, tempBuffer DevicePtr) error {

	const op = "Csr2csc"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "nnz", nnz, "action", action)

	if m < 0 || n < 0 || nnz < 0 {
		return errInvalidSize(op, "negative dimension or nnz")
	}

	// Quick return, before checking for invalid pointers.
	if m == 0 || n == 0 {
		return nil
	}

	if csrRowPtr.IsNil() || csrColInd.IsNil() {
		return errInvalidPointer(op, "csr arrays")
	}
	if cscRowInd.IsNil() || cscColPtr.IsNil() {
		return errInvalidPointer(op, "csc arrays")
	}
	if action == ActionNumeric && (csrVal.IsNil() || cscVal.IsNil()) {
		return errInvalidPointer(op, "value arrays")
	}

	baseOff := int32(base)

	// Empty pattern still needs valid column pointers.
	if nnz == 0 {
		h.launchBlocks(op, func(Dim3) {
			ptr := deviceSlice[int32](cscColPtr, n+1)
			for i := range ptr {
				ptr[i] = baseOff
			}
		}, Dim3{X: 1, Y: 1, Z: 1})
		return h.stream.Err()
	}

	if tempBuffer.IsNil() {
		return errInvalidPointer(op, "tempBuffer")
	}

	permMap := tempBuffer
	rowIndices := tempBuffer.Offset(nnz * 4)
	offsets := tempBuffer.Offset(2 * nnz * 4)

	// Uncompress row pointers to one row index per entry.
	h.launchBlocks(op, func(blockIdx Dim3) {
		rowPtr := deviceSlice[int32](csrRowPtr, m+1)
		rows := deviceSlice[int32](rowIndices, nnz)
		row := blockIdx.X
		for k := int(rowPtr[row] - baseOff); k < int(rowPtr[row+1]-baseOff); k++ {
			rows[k] = int32(row)
		}
	}, Dim3{X: m, Y: 1, Z: 1})

	// Column histogram, prefix into cscColPtr, and stable counting-sort
	// pass building the output-position-to-input-index map. CSR order is
	// row-ascending, so entries within a column stay sorted by row.
	h.launchBlocks(op, func(Dim3) {
		cols := deviceSlice[int32](csrColInd, nnz)
		ptr := deviceSlice[int32](cscColPtr, n+1)
		off := deviceSlice[int32](offsets, n)
		mp := deviceSlice[int32](permMap, nnz)

		for i := range off {
			off[i] = 0
		}
		for k := 0; k < nnz; k++ {
			off[cols[k]-baseOff]++
		}
		ptr[0] = baseOff
		for c := 0; c < n; c++ {
			ptr[c+1] = ptr[c] + off[c]
			off[c] = ptr[c] - baseOff
		}
		for k := 0; k < nnz; k++ {
			c := cols[k] - baseOff
			mp[off[c]] = int32(k)
			off[c]++
		}
	}, Dim3{X: 1, Y: 1, Z: 1})

	// Gather through the permutation, one lane per non-zero.
	grid := Dim3{X: (nnz + PermuteBlockSize - 1) / PermuteBlockSize, Y: 1, Z: 1}
	block := Dim3{X: PermuteBlockSize, Y: 1, Z: 1}

	switch action {
	case ActionNumeric:
		h.launchKernel(op, func(tid ThreadID) {
			gid := tid.Global()
			if gid >= nnz {
				return
			}
			mp := deviceSlice[int32](permMap, nnz)
			rows := deviceSlice[int32](rowIndices, nnz)
			vals := deviceSlice[T](csrVal, nnz)
			outInd := deviceSlice[int32](cscRowInd, nnz)
			outVal := deviceSlice[T](cscVal, nnz)

			idx := mp[gid]
			outInd[gid] = rows[idx] + baseOff
			outVal[gid] = vals[idx]
		}, grid, block)

	default: // ActionSymbolic
		h.launchKernel(op, func(tid ThreadID) {
			gid := tid.Global()
			if gid >= nnz {
				return
			}
			mp := deviceSlice[int32](permMap, nnz)
			rows := deviceSlice[int32](rowIndices, nnz)
			outInd := deviceSlice[int32](cscRowInd, nnz)

			outInd[gid] = rows[mp[gid]] + baseOff
		}, grid, block)
	}

	return h.stream.Err()
}
