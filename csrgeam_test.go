package gusparse

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// refGeam computes alpha*A + beta*B on the host, zero base.
func refGeam(a, b hostCSR, alpha, beta float32) hostCSR {
	c := hostCSR{m: a.m, n: a.n, rowPtr: make([]int32, a.m+1)}
	for row := 0; row < a.m; row++ {
		ka, kaEnd := a.rowPtr[row], a.rowPtr[row+1]
		kb, kbEnd := b.rowPtr[row], b.rowPtr[row+1]
		for ka < kaEnd || kb < kbEnd {
			switch {
			case kb >= kbEnd || (ka < kaEnd && a.colInd[ka] < b.colInd[kb]):
				c.colInd = append(c.colInd, a.colInd[ka])
				c.val = append(c.val, alpha*a.val[ka])
				ka++
			case ka >= kaEnd || b.colInd[kb] < a.colInd[ka]:
				c.colInd = append(c.colInd, b.colInd[kb])
				c.val = append(c.val, beta*b.val[kb])
				kb++
			default:
				c.colInd = append(c.colInd, a.colInd[ka])
				c.val = append(c.val, alpha*a.val[ka]+beta*b.val[kb])
				ka++
				kb++
			}
		}
		c.rowPtr[row+1] = int32(len(c.colInd))
	}
	return c
}

func TestCsrgeamDiagonalPlusEmpty(t *testing.T) {
	h := newTestHandle(t)

	// A = 4x4 identity-patterned diagonal, B holds no entries; with
	// alpha = beta = 1 the sum is A itself.
	a := hostCSR{
		m: 4, n: 4,
		rowPtr: []int32{0, 1, 2, 3, 4},
		colInd: []int32{0, 1, 2, 3},
		val:    []float32{1, 1, 1, 1},
	}
	rowPtrA, colIndA, valA := a.upload(t, h)
	rowPtrB := toDeviceInt32(t, h, []int32{0, 0, 0, 0, 0})
	colIndB := mallocOrFail(t, h, 4)
	valB := mallocOrFail(t, h, 4)

	descr := NewMatDescr()
	rowPtrC := mallocOrFail(t, h, 5*4)
	var nnzC int32
	err := CsrgeamNnz(h, 4, 4, descr, a.nnz(), rowPtrA, colIndA,
		descr, 0, rowPtrB, colIndB, descr, rowPtrC, &nnzC)
	if err != nil {
		t.Fatalf("CsrgeamNnz failed: %v", err)
	}
	if nnzC != 4 {
		t.Fatalf("nnzC = %d, want 4", nnzC)
	}

	alpha, beta := float32(1), float32(1)
	colIndC := mallocOrFail(t, h, 4*4)
	valC := mallocOrFail(t, h, 4*4)
	err = Csrgeam[float32](h, 4, 4, &alpha,
		descr, a.nnz(), valA, rowPtrA, colIndA, &beta,
		descr, 0, valB, rowPtrB, colIndB,
		descr, valC, rowPtrC, colIndC)
	if err != nil {
		t.Fatalf("Csrgeam failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	if diff := cmp.Diff([]int32{0, 1, 2, 3, 4}, rowPtrC.Int32()[:5]); diff != "" {
		t.Errorf("row pointers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{0, 1, 2, 3}, colIndC.Int32()[:4]); diff != "" {
		t.Errorf("column indices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{1, 1, 1, 1}, valC.Float32()[:4]); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCsrgeamRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	h := newTestHandle(t)

	m, n := 43, 31
	a := randomCSR(rng, m, n, 0.15)
	b := randomCSR(rng, m, n, 0.15)
	alpha, beta := float32(2), float32(-1)
	want := refGeam(a, b, alpha, beta)

	descr := NewMatDescr()
	rowPtrA, colIndA, valA := a.upload(t, h)
	rowPtrB, colIndB, valB := b.upload(t, h)

	rowPtrC := mallocOrFail(t, h, (m+1)*4)
	var nnzC int32
	err := CsrgeamNnz(h, m, n, descr, a.nnz(), rowPtrA, colIndA,
		descr, b.nnz(), rowPtrB, colIndB, descr, rowPtrC, &nnzC)
	if err != nil {
		t.Fatalf("CsrgeamNnz failed: %v", err)
	}
	if int(nnzC) != want.nnz() {
		t.Fatalf("nnzC = %d, want %d (union cardinality)", nnzC, want.nnz())
	}

	colIndC := mallocOrFail(t, h, int(nnzC)*4)
	valC := mallocOrFail(t, h, int(nnzC)*4)
	err = Csrgeam[float32](h, m, n, &alpha,
		descr, a.nnz(), valA, rowPtrA, colIndA, &beta,
		descr, b.nnz(), valB, rowPtrB, colIndB,
		descr, valC, rowPtrC, colIndC)
	if err != nil {
		t.Fatalf("Csrgeam failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	if diff := cmp.Diff(want.rowPtr, rowPtrC.Int32()[:m+1]); diff != "" {
		t.Errorf("row pointers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.colInd, colIndC.Int32()[:nnzC]); diff != "" {
		t.Errorf("column indices mismatch (-want +got):\n%s", diff)
	}
	got := valC.Float32()[:nnzC]
	for k := range got {
		if math.Abs(float64(got[k]-want.val[k])) > 1e-5 {
			t.Errorf("value[%d] = %g, want %g", k, got[k], want.val[k])
		}
	}
}

func TestCsrgeamMixedBases(t *testing.T) {
	h := newTestHandle(t)

	// A in base zero, B and C in base one:
	//   A = [1 0; 0 2], B = [0 3; 4 0]
	a := hostCSR{m: 2, n: 2, rowPtr: []int32{0, 1, 2}, colInd: []int32{0, 1}, val: []float32{1, 2}}
	b := hostCSR{m: 2, n: 2, rowPtr: []int32{0, 1, 2}, colInd: []int32{1, 0}, val: []float32{3, 4}}
	b1 := b.rebase()

	descrA := NewMatDescr()
	descrB := NewMatDescr().SetIndexBase(IndexBaseOne)
	descrC := NewMatDescr().SetIndexBase(IndexBaseOne)

	rowPtrA, colIndA, valA := a.upload(t, h)
	rowPtrB, colIndB, valB := b1.upload(t, h)

	rowPtrC := mallocOrFail(t, h, 3*4)
	var nnzC int32
	err := CsrgeamNnz(h, 2, 2, descrA, 2, rowPtrA, colIndA,
		descrB, 2, rowPtrB, colIndB, descrC, rowPtrC, &nnzC)
	if err != nil {
		t.Fatalf("CsrgeamNnz failed: %v", err)
	}
	if nnzC != 4 {
		t.Fatalf("nnzC = %d, want 4", nnzC)
	}

	alpha, beta := float32(1), float32(1)
	colIndC := mallocOrFail(t, h, 4*4)
	valC := mallocOrFail(t, h, 4*4)
	err = Csrgeam[float32](h, 2, 2, &alpha,
		descrA, 2, valA, rowPtrA, colIndA, &beta,
		descrB, 2, valB, rowPtrB, colIndB,
		descrC, valC, rowPtrC, colIndC)
	if err != nil {
		t.Fatalf("Csrgeam failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	if diff := cmp.Diff([]int32{1, 3, 5}, rowPtrC.Int32()[:3]); diff != "" {
		t.Errorf("row pointers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{1, 2, 1, 2}, colIndC.Int32()[:4]); diff != "" {
		t.Errorf("column indices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{1, 3, 4, 2}, valC.Float32()[:4]); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCsrgeamDevicePointerMode(t *testing.T) {
	h := newTestHandle(t)
	h.SetPointerMode(PointerModeDevice)

	a := hostCSR{m: 1, n: 2, rowPtr: []int32{0, 2}, colInd: []int32{0, 1}, val: []float32{1, 2}}
	b := hostCSR{m: 1, n: 2, rowPtr: []int32{0, 1}, colInd: []int32{1}, val: []float32{10}}

	descr := NewMatDescr()
	rowPtrA, colIndA, valA := a.upload(t, h)
	rowPtrB, colIndB, valB := b.upload(t, h)

	// Scalars live in device memory; the kernel dereferences them at
	// execution time.
	scalars := mallocOrFail(t, h, 2*4)
	scalars.Float32()[0] = 3  // alpha
	scalars.Float32()[1] = -1 // beta

	rowPtrC := mallocOrFail(t, h, 2*4)
	var nnzC int32
	err := CsrgeamNnz(h, 1, 2, descr, 2, rowPtrA, colIndA,
		descr, 1, rowPtrB, colIndB, descr, rowPtrC, &nnzC)
	if err != nil {
		t.Fatalf("CsrgeamNnz failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if nnzC != 2 {
		t.Fatalf("nnzC = %d, want 2", nnzC)
	}

	colIndC := mallocOrFail(t, h, 2*4)
	valC := mallocOrFail(t, h, 2*4)
	sc := scalars.Float32()
	err = Csrgeam[float32](h, 1, 2, &sc[0],
		descr, 2, valA, rowPtrA, colIndA, &sc[1],
		descr, 1, valB, rowPtrB, colIndB,
		descr, valC, rowPtrC, colIndC)
	if err != nil {
		t.Fatalf("Csrgeam failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	if diff := cmp.Diff([]float32{3, -4}, valC.Float32()[:2]); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCsrgeamDegenerateAndInvalid(t *testing.T) {
	h := newTestHandle(t)
	descr := NewMatDescr()

	nnzC := int32(-1)
	err := CsrgeamNnz(h, 0, 4, descr, 0, DevicePtr{}, DevicePtr{},
		descr, 0, DevicePtr{}, DevicePtr{}, descr, DevicePtr{}, &nnzC)
	if err != nil {
		t.Fatalf("m=0: %v", err)
	}
	if nnzC != 0 {
		t.Errorf("m=0: nnzC = %d, want 0", nnzC)
	}

	err = CsrgeamNnz(h, -1, 4, descr, 0, DevicePtr{}, DevicePtr{},
		descr, 0, DevicePtr{}, DevicePtr{}, descr, DevicePtr{}, &nnzC)
	if StatusOf(err) != StatusInvalidSize {
		t.Errorf("negative m: status = %v, want InvalidSize", StatusOf(err))
	}

	var alpha float32 = 1
	err = Csrgeam[float32](h, 1, 1, &alpha,
		descr, 0, DevicePtr{}, DevicePtr{}, DevicePtr{}, nil,
		descr, 0, DevicePtr{}, DevicePtr{}, DevicePtr{},
		descr, DevicePtr{}, DevicePtr{}, DevicePtr{})
	if StatusOf(err) != StatusInvalidPointer {
		t.Errorf("nil beta: status = %v, want InvalidPointer", StatusOf(err))
	}
}
