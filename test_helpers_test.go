package gusparse

import (
	"math/rand"
	"testing"
)

// newTestHandle creates a handle and registers its teardown.
func newTestHandle(t *testing.T, opts ...HandleOption) *Handle {
	t.Helper()
	h, err := NewHandle(opts...)
	if err != nil {
		t.Fatalf("NewHandle failed: %v", err)
	}
	t.Cleanup(func() { h.Destroy() })
	return h
}

// mallocOrFail allocates device memory and fails the test if unsuccessful.
func mallocOrFail(t *testing.T, h *Handle, size int) DevicePtr {
	t.Helper()
	if size == 0 {
		size = 4
	}
	ptr, err := h.Malloc(size)
	if err != nil {
		t.Fatalf("Failed to allocate %d bytes: %v", size, err)
	}
	t.Cleanup(func() { h.Free(ptr) })
	return ptr
}

// toDeviceInt32 copies a host int32 slice into fresh device memory.
func toDeviceInt32(t *testing.T, h *Handle, data []int32) DevicePtr {
	t.Helper()
	d := mallocOrFail(t, h, len(data)*4)
	copy(d.Int32(), data)
	return d
}

// toDeviceF32 copies a host float32 slice into fresh device memory.
func toDeviceF32(t *testing.T, h *Handle, data []float32) DevicePtr {
	t.Helper()
	d := mallocOrFail(t, h, len(data)*4)
	copy(d.Float32(), data)
	return d
}

// toDeviceF64 copies a host float64 slice into fresh device memory.
func toDeviceF64(t *testing.T, h *Handle, data []float64) DevicePtr {
	t.Helper()
	d := mallocOrFail(t, h, len(data)*8)
	copy(d.Float64(), data)
	return d
}

// hostCSR is a host-side CSR fixture.
type hostCSR struct {
	m, n   int
	rowPtr []int32
	colInd []int32
	val    []float32
}

func (c hostCSR) nnz() int {
	return len(c.colInd)
}

// randomCSR builds a reproducible random m by n CSR matrix with the given
// density, zero index base, sorted columns.
func randomCSR(rng *rand.Rand, m, n int, density float64) hostCSR {
	c := hostCSR{m: m, n: n, rowPtr: make([]int32, m+1)}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if rng.Float64() < density {
				c.colInd = append(c.colInd, int32(j))
				v := float32(rng.NormFloat64())
				if v == 0 {
					v = 1
				}
				c.val = append(c.val, v)
			}
		}
		c.rowPtr[i+1] = int32(len(c.colInd))
	}
	return c
}

// rebase returns a copy of the fixture shifted to index base one.
func (c hostCSR) rebase() hostCSR {
	out := hostCSR{m: c.m, n: c.n,
		rowPtr: make([]int32, len(c.rowPtr)),
		colInd: make([]int32, len(c.colInd)),
		val:    append([]float32(nil), c.val...),
	}
	for i, p := range c.rowPtr {
		out.rowPtr[i] = p + 1
	}
	for i, j := range c.colInd {
		out.colInd[i] = j + 1
	}
	return out
}

// dense returns the column-major dense rendition with leading dimension ld.
func (c hostCSR) dense(ld int) []float32 {
	a := make([]float32, ld*c.n)
	for i := 0; i < c.m; i++ {
		for k := c.rowPtr[i]; k < c.rowPtr[i+1]; k++ {
			a[i+int(c.colInd[k])*ld] = c.val[k]
		}
	}
	return a
}

// upload copies the fixture to device memory.
func (c hostCSR) upload(t *testing.T, h *Handle) (rowPtr, colInd, val DevicePtr) {
	t.Helper()
	rowPtr = toDeviceInt32(t, h, c.rowPtr)
	colInd = toDeviceInt32(t, h, append([]int32{}, c.colInd...))
	val = toDeviceF32(t, h, append([]float32{}, c.val...))
	return rowPtr, colInd, val
}
