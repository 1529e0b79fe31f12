package gusparse

import "fmt"

// Compression engine: counts, per CSR row, the entries whose magnitude is
// strictly greater than a tolerance, plus the grand total. The kernel
// variant is chosen from the runtime-observed mean non-zeros per row: a
// wavefront is divided into segments of 2..wavefront lanes and each row is
// handled by one segment.

// segmentThreshold maps an exclusive upper bound on the mean nnz/row to the
// segment width used below it. Tables are ordered; dispatch is the first
// entry whose bound exceeds the mean.
type segmentThreshold struct {
	meanBelow int32
	segment   int
}

const meanUnbounded = int32(1<<31 - 1)

var (
	segmentTable32 = []segmentThreshold{
		{4, 2}, {8, 4}, {16, 8}, {32, 16}, {meanUnbounded, 32},
	}
	segmentTable64 = []segmentThreshold{
		{4, 2}, {8, 4}, {16, 8}, {32, 16}, {64, 32}, {meanUnbounded, 64},
	}
)

// segmentForMean selects the segment width for a wavefront size, or 0 when
// the hardware width is unsupported.
func segmentForMean(waveSize int, mean int32) int {
	var table []segmentThreshold
	switch waveSize {
	case 32:
		table = segmentTable32
	case 64:
		table = segmentTable64
	default:
		return 0
	}
	for _, t := range table {
		if mean < t.meanBelow {
			return t.segment
		}
	}
	return table[len(table)-1].segment
}

// NnzCompress counts, for each of the m rows of a CSR matrix, how many
// entries have magnitude strictly greater than tol, writing the per-row
// counts into nnzPerRow and the total into nnzC.
func NnzCompress[T Scalar](h *Handle, m int, descrA *MatDescr,
	csrValA, csrRowPtrA DevicePtr, nnzPerRow DevicePtr, nnzC *int32, tol T) error {

	const op = "NnzCompress"

	if h == nil {
		return errInvalidHandle(op)
	}

	h.trace(op, "m", m, "tol", fmt.Sprintf("%v", tol))

	if descrA == nil {
		return errInvalidPointer(op, "descrA")
	}
	if m < 0 {
		return errInvalidSize(op, "negative row count")
	}
	if realPart(tol) < 0 {
		return errInvalidValue(op, "negative tolerance")
	}

	// Quick return, before the remaining pointer checks.
	if m == 0 {
		if nnzC != nil {
			h.writeInt32(nnzC, 0)
		}
		return nil
	}

	if csrValA.IsNil() {
		return errInvalidPointer(op, "csrValA")
	}
	if csrRowPtrA.IsNil() {
		return errInvalidPointer(op, "csrRowPtrA")
	}
	if nnzPerRow.IsNil() {
		return errInvalidPointer(op, "nnzPerRow")
	}
	if nnzC == nil {
		return errInvalidPointer(op, "nnzC")
	}

	// The input nnz comes from the last row-pointer entry; reading it on
	// the host synchronizes the stream up to this point.
	if err := h.stream.Synchronize(); err != nil {
		return err
	}
	nnzA := deviceSlice[int32](csrRowPtrA, m+1)[m]
	meanNnzPerRow := nnzA / int32(m)

	segment := segmentForMean(h.waveSize, meanNnzPerRow)
	if segment == 0 {
		return errArchMismatch(op, h.waveSize)
	}

	blockSize := h.tuning.NnzCompressBlockSize
	segmentsPerBlock := blockSize / segment
	gridSize := (m + segmentsPerBlock - 1) / segmentsPerBlock

	nnzCompressKernel[T](h, op, m, descrA.IndexBase(), csrValA, csrRowPtrA,
		nnzPerRow, tol, Dim3{X: gridSize, Y: 1, Z: 1}, segmentsPerBlock, segment)

	return h.reduceTotal(op, nnzPerRow, m, nnzC)
}

// nnzCompressKernel assigns one segment to each row; lanes of a segment
// stride through the row's entries and their survivor counts are folded
// into the row total.
func nnzCompressKernel[T Scalar](h *Handle, op string, m int, base IndexBase,
	csrValA, csrRowPtrA DevicePtr, nnzPerRow DevicePtr, tol T,
	grid Dim3, segmentsPerBlock, segment int) {

	tolMag := realPart(tol)
	baseOff := int32(base)

	h.launchKernel(op, func(tid ThreadID) {
		row := tid.Global()
		if row >= m {
			return
		}

		rowPtr := deviceSlice[int32](csrRowPtrA, m+1)
		vals := deviceSlice[T](csrValA, int(rowPtr[m]-baseOff))
		out := deviceSlice[int32](nnzPerRow, m)

		start := int(rowPtr[row] - baseOff)
		end := int(rowPtr[row+1] - baseOff)

		var count int32
		for lane := 0; lane < segment; lane++ {
			for k := start + lane; k < end; k += segment {
				if magnitude(vals[k]) > tolMag {
					count++
				}
			}
		}
		out[row] = count
	}, grid, Dim3{X: segmentsPerBlock, Y: 1, Z: 1})
}
