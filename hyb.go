package gusparse

// HYB hybrid format: a regular ELL part holding up to ellWidth entries per
// row in column-major order (padded with index -1), plus a COO overflow
// part holding whatever exceeds the ELL width, sorted by row then column.

// HybMat is a hybrid sparse matrix. Its buffers are owned by the library:
// Csr2hyb allocates them from the handle's pool and Destroy releases them.
type HybMat struct {
	m, n      int
	partition HybPartition

	ellWidth  int
	ellNnz    int
	ellColInd DevicePtr
	ellVal    DevicePtr

	cooNnz    int
	cooRowInd DevicePtr
	cooColInd DevicePtr
	cooVal    DevicePtr

	pool *MemoryPool
}

// NewHybMat creates an empty HYB matrix to be populated by Csr2hyb.
func NewHybMat() *HybMat {
	return &HybMat{}
}

// Rows returns the number of rows.
func (hyb *HybMat) Rows() int { return hyb.m }

// Cols returns the number of columns.
func (hyb *HybMat) Cols() int { return hyb.n }

// EllWidth returns the entries-per-row capacity of the ELL part.
func (hyb *HybMat) EllWidth() int { return hyb.ellWidth }

// CooNnz returns the entry count of the COO overflow part.
func (hyb *HybMat) CooNnz() int { return hyb.cooNnz }

// Destroy releases the matrix buffers.
func (hyb *HybMat) Destroy() error {
	if hyb.pool == nil {
		return nil
	}
	var first error
	for _, d := range []DevicePtr{hyb.ellColInd, hyb.ellVal, hyb.cooRowInd, hyb.cooColInd, hyb.cooVal} {
		if err := hyb.pool.Free(d); err != nil && first == nil {
			first = err
		}
	}
	*hyb = HybMat{}
	return first
}

func (hyb *HybMat) free(h *Handle) {
	hyb.Destroy()
	hyb.pool = h.pool
}

// ellIndex is the column-major ELL coordinate of slot k of row r.
func ellIndex(m, r, k int) int {
	return r + k*m
}

// Csr2hyb converts an m by n CSR matrix into HYB. The ELL width is chosen
// by the partition mode: auto derives it from the mean nnz per row, max
// uses the widest row (leaving the COO part empty), user takes
// userEllWidth.
func Csr2hyb[T Scalar](h *Handle, m, n int, descr *MatDescr,
	csrVal, csrRowPtr, csrColInd DevicePtr, hyb *HybMat,
	userEllWidth int, partition HybPartition) error {

	const op = "Csr2hyb"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "n", n, "partition", int(partition), "userEllWidth", userEllWidth)

	if descr == nil {
		return errInvalidPointer(op, "descr")
	}
	if m < 0 || n < 0 {
		return errInvalidSize(op, "negative dimension")
	}
	if partition != HybPartitionAuto && partition != HybPartitionUser && partition != HybPartitionMax {
		return errInvalidValue(op, "invalid partition mode")
	}

	// Quick return, before the remaining pointer checks.
	if m == 0 || n == 0 {
		if hyb != nil {
			hyb.free(h)
			hyb.m, hyb.n = m, n
			hyb.partition = partition
		}
		return nil
	}

	if hyb == nil {
		return errInvalidPointer(op, "hyb")
	}
	if csrVal.IsNil() || csrRowPtr.IsNil() || csrColInd.IsNil() {
		return errInvalidPointer(op, "csr arrays")
	}
	if descr.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}
	if partition == HybPartitionUser && userEllWidth < 0 {
		return errInvalidValue(op, "negative user ELL width")
	}

	// Row widths come from the row pointers; reading them on the host
	// synchronizes the stream up to this point.
	if err := h.stream.Synchronize(); err != nil {
		return err
	}
	base := int32(descr.IndexBase())
	rowPtr := deviceSlice[int32](csrRowPtr, m+1)
	nnz := int(rowPtr[m] - base)

	ellWidth := 0
	switch partition {
	case HybPartitionAuto:
		ellWidth = (nnz + m - 1) / m
	case HybPartitionUser:
		ellWidth = userEllWidth
	case HybPartitionMax:
		for r := 0; r < m; r++ {
			if w := int(rowPtr[r+1] - rowPtr[r]); w > ellWidth {
				ellWidth = w
			}
		}
	}

	cooNnz := 0
	for r := 0; r < m; r++ {
		if w := int(rowPtr[r+1] - rowPtr[r]); w > ellWidth {
			cooNnz += w - ellWidth
		}
	}
	if partition == HybPartitionUser && cooNnz > 0 {
		return errInvalidValue(op, "user ELL width too small for matrix")
	}

	elem := scalarSize[T]()
	hyb.free(h)
	hyb.m, hyb.n = m, n
	hyb.partition = partition
	hyb.ellWidth = ellWidth
	hyb.ellNnz = ellWidth * m
	hyb.cooNnz = cooNnz

	var err error
	if hyb.ellNnz > 0 {
		if hyb.ellColInd, err = h.Malloc(hyb.ellNnz * 4); err != nil {
			return errMemory(op, "ELL allocation failed", err)
		}
		if hyb.ellVal, err = h.Malloc(hyb.ellNnz * elem); err != nil {
			return errMemory(op, "ELL allocation failed", err)
		}
	}
	if cooNnz > 0 {
		if hyb.cooRowInd, err = h.Malloc(cooNnz * 4); err != nil {
			return errMemory(op, "COO allocation failed", err)
		}
		if hyb.cooColInd, err = h.Malloc(cooNnz * 4); err != nil {
			return errMemory(op, "COO allocation failed", err)
		}
		if hyb.cooVal, err = h.Malloc(cooNnz * elem); err != nil {
			return errMemory(op, "COO allocation failed", err)
		}
	}

	// Per-row COO destinations, prefixed on the host while synchronized.
	cooOffsets := make([]int32, m+1)
	for r := 0; r < m; r++ {
		over := int32(0)
		if w := rowPtr[r+1] - rowPtr[r]; int(w) > ellWidth {
			over = w - int32(ellWidth)
		}
		cooOffsets[r+1] = cooOffsets[r] + over
	}

	ellNnz := hyb.ellNnz
	ellColInd, ellVal := hyb.ellColInd, hyb.ellVal
	cooRowInd, cooColInd, cooVal := hyb.cooRowInd, hyb.cooColInd, hyb.cooVal

	// One block per row: leading entries to ELL slots (padding the rest),
	// overflow appended to COO in order.
	h.launchBlocks(op, func(blockIdx Dim3) {
		ptr := deviceSlice[int32](csrRowPtr, m+1)
		cols := deviceSlice[int32](csrColInd, nnz)
		vals := deviceSlice[T](csrVal, nnz)

		eCols := deviceSlice[int32](ellColInd, ellNnz)
		eVals := deviceSlice[T](ellVal, ellNnz)
		cRows := deviceSlice[int32](cooRowInd, cooNnz)
		cCols := deviceSlice[int32](cooColInd, cooNnz)
		cVals := deviceSlice[T](cooVal, cooNnz)

		r := blockIdx.X
		start := int(ptr[r] - base)
		end := int(ptr[r+1] - base)

		var zero T
		for k := 0; k < ellWidth; k++ {
			p := ellIndex(m, r, k)
			if start+k < end {
				eCols[p] = cols[start+k]
				eVals[p] = vals[start+k]
			} else {
				eCols[p] = -1
				eVals[p] = zero
			}
		}
		dst := int(cooOffsets[r])
		for k := start + ellWidth; k < end; k++ {
			cRows[dst] = int32(r) + base
			cCols[dst] = cols[k]
			cVals[dst] = vals[k]
			dst++
		}
	}, Dim3{X: m, Y: 1, Z: 1})

	return h.stream.Err()
}

// Hyb2csrBufferSize reports the temporary buffer bytes Hyb2csr needs: one
// staging count per row.
func Hyb2csrBufferSize(h *Handle, descr *MatDescr, hyb *HybMat, bufferSize *int) error {
	const op = "Hyb2csrBufferSize"

	if h == nil {
		return errInvalidHandle(op)
	}
	if descr == nil {
		return errInvalidPointer(op, "descr")
	}
	if hyb == nil {
		return errInvalidPointer(op, "hyb")
	}

	h.trace(op, "m", hyb.m, "n", hyb.n)

	if hyb.m == 0 || hyb.n == 0 {
		if bufferSize != nil {
			*bufferSize = 4
		}
		return nil
	}
	if bufferSize == nil {
		return errInvalidPointer(op, "bufferSize")
	}
	*bufferSize = hyb.m * 4
	return nil
}

// Hyb2csr converts a HYB matrix back into CSR, two-phase: per-row counts
// from the ELL and COO parts are prefixed into the row pointers, then a
// fill pass writes ELL entries followed by the row's COO overflow.
// tempBuffer must hold the bytes reported by Hyb2csrBufferSize.
func Hyb2csr[T Scalar](h *Handle, descr *MatDescr, hyb *HybMat,
	csrVal, csrRowPtr, csrColInd DevicePtr, tempBuffer DevicePtr) error {

	const op = "Hyb2csr"

	if h == nil {
		return errInvalidHandle(op)
	}
	if descr == nil {
		return errInvalidPointer(op, "descr")
	}
	if hyb == nil {
		return errInvalidPointer(op, "hyb")
	}

	h.trace(op, "m", hyb.m, "n", hyb.n)

	// Quick return, before the remaining pointer checks.
	if hyb.m == 0 || hyb.n == 0 {
		return nil
	}

	if csrVal.IsNil() || csrRowPtr.IsNil() || csrColInd.IsNil() {
		return errInvalidPointer(op, "csr arrays")
	}
	if tempBuffer.IsNil() {
		return errInvalidPointer(op, "tempBuffer")
	}
	if descr.MatrixType() != MatrixTypeGeneral {
		return errNotImplemented(op, "matrix type must be general")
	}

	m := hyb.m
	base := int32(descr.IndexBase())
	ellWidth, ellNnz := hyb.ellWidth, hyb.ellNnz
	cooNnz := hyb.cooNnz
	ellColInd, ellVal := hyb.ellColInd, hyb.ellVal
	cooRowInd, cooColInd, cooVal := hyb.cooRowInd, hyb.cooColInd, hyb.cooVal

	// Phase 1: per-row counts. ELL slots with a real index plus the row's
	// COO span (COO rows are sorted, so the span is a binary search).
	h.launchBlocks(op, func(blockIdx Dim3) {
		counts := deviceSlice[int32](tempBuffer, m)
		eCols := deviceSlice[int32](ellColInd, ellNnz)
		cRows := deviceSlice[int32](cooRowInd, cooNnz)

		r := blockIdx.X
		var count int32
		for k := 0; k < ellWidth; k++ {
			if eCols[ellIndex(m, r, k)] >= base {
				count++
			}
		}
		lo, hi := cooRowRange(cRows, int32(r)+base)
		count += int32(hi - lo)
		counts[r] = count
	}, Dim3{X: m, Y: 1, Z: 1})

	h.launchBlocks(op, func(Dim3) {
		counts := deviceSlice[int32](tempBuffer, m)
		ptr := deviceSlice[int32](csrRowPtr, m+1)
		ptr[0] = base
		for r := 0; r < m; r++ {
			ptr[r+1] = ptr[r] + counts[r]
		}
	}, Dim3{X: 1, Y: 1, Z: 1})

	// Phase 2: fill. ELL entries are stored in ascending column order and
	// the COO overflow continues past the ELL columns, so the row comes
	// out sorted.
	h.launchBlocks(op, func(blockIdx Dim3) {
		ptr := deviceSlice[int32](csrRowPtr, m+1)
		nnz := int(ptr[m] - base)
		outCols := deviceSlice[int32](csrColInd, nnz)
		outVals := deviceSlice[T](csrVal, nnz)

		eCols := deviceSlice[int32](ellColInd, ellNnz)
		eVals := deviceSlice[T](ellVal, ellNnz)
		cRows := deviceSlice[int32](cooRowInd, cooNnz)
		cCols := deviceSlice[int32](cooColInd, cooNnz)
		cVals := deviceSlice[T](cooVal, cooNnz)

		r := blockIdx.X
		dst := int(ptr[r] - base)
		for k := 0; k < ellWidth; k++ {
			p := ellIndex(m, r, k)
			if eCols[p] >= base {
				outCols[dst] = eCols[p]
				outVals[dst] = eVals[p]
				dst++
			}
		}
		lo, hi := cooRowRange(cRows, int32(r)+base)
		for k := lo; k < hi; k++ {
			outCols[dst] = cCols[k]
			outVals[dst] = cVals[k]
			dst++
		}
	}, Dim3{X: m, Y: 1, Z: 1})

	return h.stream.Err()
}

// cooRowRange finds the [lo, hi) span of row in a sorted COO row array.
func cooRowRange(rows []int32, row int32) (int, int) {
	lo := lowerBound(rows, row)
	hi := lowerBound(rows, row+1)
	return lo, hi
}

func lowerBound(a []int32, want int32) int {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := (lo + hi) / 2
		if a[mid] < want {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
