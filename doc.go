// Package gusparse provides GPU-style sparse linear algebra kernels for CPU
// execution: operations are enqueued as kernels on an asynchronous stream
// owned by a Handle, operate on DevicePtr buffers, and return status-backed
// errors instead of panicking.
//
// The library covers sparse format conversions (CSR/CSC to and from dense,
// CSR to and from BSR, CSR to and from HYB, CSR to CSC), non-zero counting
// and tolerance-based compression, and sparse matrix addition (csrgeam).
// Sizing operations (Nnz, Csr2bsrNnz, CsrgeamNnz, NnzCompress) must be
// called before their fill counterparts so callers can allocate output
// buffers from the reported cardinalities.
//
// Example usage:
//
//	h, _ := gusparse.NewHandle()
//	defer h.Destroy()
//
//	descr := gusparse.NewMatDescr()
//	var total int32
//	err := gusparse.Nnz[float32](h, gusparse.DirectionRow, m, n, descr,
//		dA, ld, dCounts, &total)
//
// Scalar outputs respect the handle's pointer mode: in host mode the write
// completes synchronously before the call returns, in device mode it is
// enqueued on the stream and becomes visible once the stream has drained.
package gusparse
