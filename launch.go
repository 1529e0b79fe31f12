package gusparse

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Dim3 represents 3D dimensions for grid and block configurations,
// matching the dim3 launch parameters of device runtimes.
type Dim3 struct {
	X, Y, Z int
}

// Size returns the total number of elements.
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

// ThreadID identifies a thread's position within the execution hierarchy,
// with the same indexing semantics as blockIdx/threadIdx/blockDim/gridDim.
type ThreadID struct {
	BlockIdx  Dim3
	ThreadIdx Dim3
	BlockDim  Dim3
	GridDim   Dim3
}

// Global returns the global linear index along X.
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// KernelFunc is a function launched as a kernel. One invocation per thread
// in the grid; implementations must be safe for concurrent execution across
// blocks.
type KernelFunc func(tid ThreadID)

// launchKernel enqueues a kernel on the handle's stream. Blocks are fanned
// out over a bounded worker group; threads within a block run sequentially
// on one worker to keep per-block state coherent and cache-resident. A
// panicking kernel is translated into a sticky internal-error status on the
// stream rather than crashing the process.
func (h *Handle) launchKernel(op string, fn KernelFunc, grid, block Dim3) {
	gridSize := grid.Size()
	blockSize := block.Size()

	if gridSize == 0 || blockSize == 0 {
		// Empty launch still occupies a slot in stream order.
		h.stream.Submit(func() {})
		return
	}

	workers := h.device.Workers
	if workers > gridSize {
		workers = gridSize
	}

	h.stream.Submit(func() {
		var g errgroup.Group
		g.SetLimit(workers)

		for blockID := 0; blockID < gridSize; blockID++ {
			blockIdx := linearTo3D(blockID, grid)
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errInternal(op, fmt.Sprintf("kernel panic: %v", r), nil)
					}
				}()
				for threadID := 0; threadID < blockSize; threadID++ {
					fn(ThreadID{
						BlockIdx:  blockIdx,
						ThreadIdx: linearTo3D(threadID, block),
						BlockDim:  block,
						GridDim:   grid,
					})
				}
				return nil
			})
		}

		h.stream.setErr(g.Wait())
	})
}

// launchBlocks enqueues a kernel that receives one invocation per block
// instead of per thread. Conversion kernels that iterate their own lanes
// internally use this to avoid per-thread dispatch overhead on CPU.
func (h *Handle) launchBlocks(op string, fn func(blockIdx Dim3), grid Dim3) {
	h.launchKernel(op, func(tid ThreadID) {
		fn(tid.BlockIdx)
	}, grid, Dim3{X: 1, Y: 1, Z: 1})
}

// linearTo3D converts a linear index to 3D coordinates.
func linearTo3D(linear int, dim Dim3) Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return Dim3{X: x, Y: y, Z: z}
}

// defaultWorkers is the launch fan-out used when a handle does not override
// it.
func defaultWorkers() int {
	return runtime.NumCPU()
}
