package gusparse

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCsr2denseIdentity(t *testing.T) {
	h := newTestHandle(t)

	// 2x2 identity in CSR; the dense result is column-major [1 0 0 1].
	rowPtr := toDeviceInt32(t, h, []int32{0, 1, 2})
	colInd := toDeviceInt32(t, h, []int32{0, 1})
	val := toDeviceF32(t, h, []float32{1, 1})
	dA := mallocOrFail(t, h, 4*4)

	if err := Csr2dense[float32](h, 2, 2, NewMatDescr(), val, rowPtr, colInd, dA, 2); err != nil {
		t.Fatalf("Csr2dense failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if diff := cmp.Diff([]float32{1, 0, 0, 1}, dA.Float32()[:4]); diff != "" {
		t.Errorf("dense mismatch (-want +got):\n%s", diff)
	}
}

func TestCsr2denseOverwritesAndPreservesPadding(t *testing.T) {
	h := newTestHandle(t)

	rng := rand.New(rand.NewSource(3))
	fix := randomCSR(rng, 13, 9, 0.3)
	rowPtr, colInd, val := fix.upload(t, h)

	// lda > m: rows beyond m belong to the caller and must survive the
	// zero-fill untouched. In-window garbage must be overwritten.
	lda := fix.m + 3
	dA := mallocOrFail(t, h, lda*fix.n*4)
	a := dA.Float32()
	for i := range a[:lda*fix.n] {
		a[i] = -99
	}

	if err := Csr2dense[float32](h, fix.m, fix.n, NewMatDescr(), val, rowPtr, colInd, dA, lda); err != nil {
		t.Fatalf("Csr2dense failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}

	want := make([]float32, lda*fix.n)
	for j := 0; j < fix.n; j++ {
		for i := fix.m; i < lda; i++ {
			want[i+j*lda] = -99
		}
	}
	for i := 0; i < fix.m; i++ {
		for k := fix.rowPtr[i]; k < fix.rowPtr[i+1]; k++ {
			want[i+int(fix.colInd[k])*lda] = fix.val[k]
		}
	}
	if diff := cmp.Diff(want, a[:lda*fix.n]); diff != "" {
		t.Errorf("dense mismatch (-want +got):\n%s", diff)
	}
}

func TestCsc2denseBaseOne(t *testing.T) {
	h := newTestHandle(t)

	// 3x2, CSC with one-based indices:
	//   0 4
	//   2 0
	//   0 5
	colPtr := toDeviceInt32(t, h, []int32{1, 2, 4})
	rowInd := toDeviceInt32(t, h, []int32{2, 1, 3})
	val := toDeviceF32(t, h, []float32{2, 4, 5})
	dA := mallocOrFail(t, h, 6*4)

	descr := NewMatDescr().SetIndexBase(IndexBaseOne)
	if err := Csc2dense[float32](h, 3, 2, descr, val, colPtr, rowInd, dA, 3); err != nil {
		t.Fatalf("Csc2dense failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if diff := cmp.Diff([]float32{0, 2, 0, 4, 0, 5}, dA.Float32()[:6]); diff != "" {
		t.Errorf("dense mismatch (-want +got):\n%s", diff)
	}
}

func TestCsx2denseQuickReturnTouchesNothing(t *testing.T) {
	h := newTestHandle(t)

	dA := mallocOrFail(t, h, 4*4)
	dA.Float32()[0] = 42

	// Zero-dimension calls succeed before pointer validation and leave the
	// dense buffer alone.
	if err := Csr2dense[float32](h, 0, 4, nil, DevicePtr{}, DevicePtr{}, DevicePtr{}, dA, 0); err != nil {
		t.Fatalf("Csr2dense failed: %v", err)
	}
	if err := Csc2dense[float32](h, 4, 0, nil, DevicePtr{}, DevicePtr{}, DevicePtr{}, dA, 4); err != nil {
		t.Fatalf("Csc2dense failed: %v", err)
	}
	h.Synchronize()
	if dA.Float32()[0] != 42 {
		t.Errorf("quick return modified the dense buffer")
	}
}

func TestCsx2denseInvalidArguments(t *testing.T) {
	h := newTestHandle(t)
	rowPtr := toDeviceInt32(t, h, []int32{0, 1})
	colInd := toDeviceInt32(t, h, []int32{0})
	val := toDeviceF32(t, h, []float32{1})
	dA := mallocOrFail(t, h, 4)

	if got := StatusOf(Csr2dense[float32](h, 2, 1, NewMatDescr(), val, rowPtr, colInd, dA, 1)); got != StatusInvalidSize {
		t.Errorf("lda below m: status = %v, want InvalidSize", got)
	}
	if got := StatusOf(Csr2dense[float32](h, 1, 1, NewMatDescr(), val, rowPtr, DevicePtr{}, dA, 1)); got != StatusInvalidPointer {
		t.Errorf("nil index array: status = %v, want InvalidPointer", got)
	}
	triangular := NewMatDescr().SetMatrixType(MatrixTypeTriangular)
	if got := StatusOf(Csr2dense[float32](h, 1, 1, triangular, val, rowPtr, colInd, dA, 1)); got != StatusNotImplemented {
		t.Errorf("triangular type: status = %v, want NotImplemented", got)
	}
}
