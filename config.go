package gusparse

// Kernel configuration constants. Tuning (tuning.go) starts from these and
// may override individual values per machine.

// Wavefront widths
const (
	// DefaultWavefrontSize is the lane width assumed when a handle does not
	// override it. Only 32 and 64 are supported by the segmented kernels.
	DefaultWavefrontSize = 64
)

// Kernel launch dimensions
const (
	// NnzCompressBlockSize is the scheduling block for the tolerance filter
	// kernels; segments of 2..wavefront lanes share one block.
	NnzCompressBlockSize = 1024

	// DenseConvRowsPerBlock is the number of rows (or columns) of a dense
	// matrix handled per scheduling block by the csx2dense and dense2csx
	// kernels, with one wavefront-wide lane group per row.
	DenseConvRowsPerBlock = 16

	// DenseConvWavefrontSize is the lane group width used for dispatch
	// sizing of the dense conversion kernels.
	DenseConvWavefrontSize = 64

	// PermuteBlockSize is the block size of the csr2csc gather kernel,
	// one lane per non-zero.
	PermuteBlockSize = 256

	// ReduceBlockSize is the number of elements accumulated per partial in
	// the parallel sum reduction.
	ReduceBlockSize = 256
)

// Handle resources
const (
	// DefaultScratchSize is the reusable device scratch buffer allocated
	// with each handle. Reductions borrow it when their temporary storage
	// fits, avoiding an allocation per call.
	DefaultScratchSize = 4 * 1024 * 1024
)
