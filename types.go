package gusparse

// Direction selects row-wise or column-wise traversal of a matrix. For BSR
// conversions it also selects the layout of each dense block: DirectionRow
// stores blocks row-major, DirectionColumn column-major.
type Direction int

const (
	DirectionRow Direction = iota
	DirectionColumn
)

// String returns the direction as a string.
func (d Direction) String() string {
	switch d {
	case DirectionRow:
		return "row"
	case DirectionColumn:
		return "column"
	default:
		return "invalid"
	}
}

func (d Direction) valid() bool {
	return d == DirectionRow || d == DirectionColumn
}

// IndexBase is the 0- or 1-origin convention of a matrix's stored indices.
type IndexBase int

const (
	IndexBaseZero IndexBase = iota
	IndexBaseOne
)

// MatrixType categorizes a sparse matrix. Only MatrixTypeGeneral is
// supported by the kernels; the other types exist so descriptors can be
// round-tripped and yield a NotImplemented status when used.
type MatrixType int

const (
	MatrixTypeGeneral MatrixType = iota
	MatrixTypeSymmetric
	MatrixTypeHermitian
	MatrixTypeTriangular
)

// PointerMode determines whether scalar inputs and outputs live in host or
// device memory. Host mode makes scalar writes synchronous; device mode
// enqueues them on the stream and defers scalar reads to kernel execution.
type PointerMode int

const (
	PointerModeHost PointerMode = iota
	PointerModeDevice
)

// Action selects whether a conversion moves values or only the sparsity
// pattern.
type Action int

const (
	ActionNumeric Action = iota
	ActionSymbolic
)

// HybPartition controls the ELL width chosen by Csr2hyb.
type HybPartition int

const (
	// HybPartitionAuto sizes the ELL part from the mean nnz per row.
	HybPartitionAuto HybPartition = iota
	// HybPartitionUser takes the ELL width from the caller.
	HybPartitionUser
	// HybPartitionMax sizes the ELL part to the maximum row width, leaving
	// the COO part empty.
	HybPartitionMax
)

// MatDescr carries the properties of a sparse matrix that kernels need to
// interpret its arrays: the index base and the matrix type.
type MatDescr struct {
	base    IndexBase
	matType MatrixType
}

// NewMatDescr creates a descriptor with zero index base and general type.
func NewMatDescr() *MatDescr {
	return &MatDescr{}
}

// SetIndexBase sets the index base of the descriptor.
func (d *MatDescr) SetIndexBase(base IndexBase) *MatDescr {
	d.base = base
	return d
}

// IndexBase returns the index base of the descriptor.
func (d *MatDescr) IndexBase() IndexBase {
	return d.base
}

// SetMatrixType sets the matrix type of the descriptor.
func (d *MatDescr) SetMatrixType(t MatrixType) *MatDescr {
	d.matType = t
	return d
}

// MatrixType returns the matrix type of the descriptor.
func (d *MatDescr) MatrixType() MatrixType {
	return d.matType
}
