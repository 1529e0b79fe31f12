package gusparse

// Parallel sum reduction over int32 count arrays. Mirrors the two-call
// shape of device reduction primitives: callers first query the temporary
// storage requirement, then run the reduction with a buffer of at least
// that size. Operations satisfy the requirement from the handle's scratch
// buffer when it fits and from a per-call temporary allocation otherwise.

// reduceInt32TempSize returns the temporary storage bytes required to sum n
// int32 values: one partial per reduction block plus the result cell.
func reduceInt32TempSize(t Tuning, n int) int {
	partials := (n + t.ReduceBlockSize - 1) / t.ReduceBlockSize
	return (partials + 1) * 4
}

// reduceInt32 enqueues a sum of in[:n] into the first cell of temp. Two
// passes: a grid of blocks folds ReduceBlockSize elements each into a
// partial, then a single block folds the partials into the result cell.
// temp must hold at least reduceInt32TempSize bytes.
func (h *Handle) reduceInt32(op string, in DevicePtr, n int, temp DevicePtr) {
	blockSize := h.tuning.ReduceBlockSize
	partials := (n + blockSize - 1) / blockSize

	h.launchBlocks(op, func(blockIdx Dim3) {
		src := deviceSlice[int32](in, n)
		dst := deviceSlice[int32](temp, partials+1)

		start := blockIdx.X * blockSize
		end := start + blockSize
		if end > n {
			end = n
		}
		var sum int32
		for i := start; i < end; i++ {
			sum += src[i]
		}
		dst[1+blockIdx.X] = sum
	}, Dim3{X: partials, Y: 1, Z: 1})

	h.launchBlocks(op, func(Dim3) {
		dst := deviceSlice[int32](temp, partials+1)
		var sum int32
		for i := 0; i < partials; i++ {
			sum += dst[1+i]
		}
		dst[0] = sum
	}, Dim3{X: 1, Y: 1, Z: 1})
}

// reduceTotal sums a device count array into a scalar output respecting
// pointer mode, with the borrow-scratch-or-allocate temporary policy.
func (h *Handle) reduceTotal(op string, counts DevicePtr, n int, out *int32) error {
	tempSize := reduceInt32TempSize(h.tuning, n)
	temp, temporary, err := h.borrowScratch(op, tempSize)
	if err != nil {
		return err
	}

	h.reduceInt32(op, counts, n, temp)
	err = h.copyOutInt32(out, temp)

	// Stream-ordered release: the pool keeps the memory valid, and any
	// reuse is issued behind the pending tasks on the same stream.
	h.releaseScratch(temp, temporary)
	return err
}
