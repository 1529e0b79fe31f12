package gusparse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNnzRowAndColumn(t *testing.T) {
	h := newTestHandle(t)

	// 3x4, column-major:
	//   1 0 2 0
	//   0 0 3 4
	//   5 0 0 6
	m, n, ld := 3, 4, 3
	dense := []float32{
		1, 0, 5,
		0, 0, 0,
		2, 3, 0,
		0, 4, 6,
	}
	dA := toDeviceF32(t, h, dense)

	descr := NewMatDescr()

	t.Run("row", func(t *testing.T) {
		counts := mallocOrFail(t, h, m*4)
		var total int32
		if err := Nnz[float32](h, DirectionRow, m, n, descr, dA, ld, counts, &total); err != nil {
			t.Fatalf("Nnz failed: %v", err)
		}
		if err := h.Synchronize(); err != nil {
			t.Fatalf("Synchronize failed: %v", err)
		}
		if diff := cmp.Diff([]int32{2, 2, 2}, counts.Int32()[:m]); diff != "" {
			t.Errorf("per-row counts mismatch (-want +got):\n%s", diff)
		}
		if total != 6 {
			t.Errorf("total = %d, want 6", total)
		}
	})

	t.Run("column", func(t *testing.T) {
		counts := mallocOrFail(t, h, n*4)
		var total int32
		if err := Nnz[float32](h, DirectionColumn, m, n, descr, dA, ld, counts, &total); err != nil {
			t.Fatalf("Nnz failed: %v", err)
		}
		if err := h.Synchronize(); err != nil {
			t.Fatalf("Synchronize failed: %v", err)
		}
		if diff := cmp.Diff([]int32{2, 0, 2, 2}, counts.Int32()[:n]); diff != "" {
			t.Errorf("per-column counts mismatch (-want +got):\n%s", diff)
		}
		if total != 6 {
			t.Errorf("total = %d, want 6", total)
		}
	})
}

func TestNnzFloat64PaddedLd(t *testing.T) {
	h := newTestHandle(t)

	// 2x2 identity stored with ld=4; the padding rows must not be counted.
	m, n, ld := 2, 2, 4
	dense := []float64{
		1, 0, 9, 9,
		0, 1, 9, 9,
	}
	dA := toDeviceF64(t, h, dense)

	counts := mallocOrFail(t, h, m*4)
	var total int32
	if err := Nnz[float64](h, DirectionRow, m, n, NewMatDescr(), dA, ld, counts, &total); err != nil {
		t.Fatalf("Nnz failed: %v", err)
	}
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}

func TestNnzDevicePointerMode(t *testing.T) {
	h := newTestHandle(t)
	h.SetPointerMode(PointerModeDevice)

	m, n := 2, 2
	dA := toDeviceF32(t, h, []float32{1, 2, 0, 3})
	counts := mallocOrFail(t, h, m*4)

	var total int32
	if err := Nnz[float32](h, DirectionRow, m, n, NewMatDescr(), dA, m, counts, &total); err != nil {
		t.Fatalf("Nnz failed: %v", err)
	}
	// The write is stream-ordered; it is only visible after synchronizing.
	if err := h.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestNnzZeroDimensions(t *testing.T) {
	h := newTestHandle(t)

	// Degenerate sizes succeed before pointer validation: nil buffers are
	// fine and only the total is forced.
	for _, dim := range []struct{ m, n int }{{0, 5}, {5, 0}, {0, 0}} {
		total := int32(-1)
		err := Nnz[float32](h, DirectionRow, dim.m, dim.n, nil, DevicePtr{}, dim.m, DevicePtr{}, &total)
		if err != nil {
			t.Fatalf("Nnz(%d, %d) failed: %v", dim.m, dim.n, err)
		}
		if total != 0 {
			t.Errorf("Nnz(%d, %d) total = %d, want 0", dim.m, dim.n, total)
		}
	}
}

func TestNnzInvalidArguments(t *testing.T) {
	h := newTestHandle(t)
	dA := toDeviceF32(t, h, []float32{1, 2, 3, 4})
	counts := mallocOrFail(t, h, 2*4)
	var total int32

	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil handle",
			Nnz[float32](nil, DirectionRow, 2, 2, NewMatDescr(), dA, 2, counts, &total),
			StatusInvalidHandle},
		{"bad direction",
			Nnz[float32](h, Direction(7), 2, 2, NewMatDescr(), dA, 2, counts, &total),
			StatusInvalidValue},
		{"negative m",
			Nnz[float32](h, DirectionRow, -1, 2, NewMatDescr(), dA, 2, counts, &total),
			StatusInvalidSize},
		{"ld below m",
			Nnz[float32](h, DirectionRow, 2, 2, NewMatDescr(), dA, 1, counts, &total),
			StatusInvalidSize},
		{"nil descriptor",
			Nnz[float32](h, DirectionRow, 2, 2, nil, dA, 2, counts, &total),
			StatusInvalidPointer},
		{"nil counts",
			Nnz[float32](h, DirectionRow, 2, 2, NewMatDescr(), dA, 2, DevicePtr{}, &total),
			StatusInvalidPointer},
		{"nil matrix",
			Nnz[float32](h, DirectionRow, 2, 2, NewMatDescr(), DevicePtr{}, 2, counts, &total),
			StatusInvalidPointer},
		{"nil total",
			Nnz[float32](h, DirectionRow, 2, 2, NewMatDescr(), dA, 2, counts, nil),
			StatusInvalidPointer},
		{"symmetric type",
			Nnz[float32](h, DirectionRow, 2, 2, NewMatDescr().SetMatrixType(MatrixTypeSymmetric), dA, 2, counts, &total),
			StatusNotImplemented},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("%s: status = %v, want %v (err: %v)", tt.name, got, tt.want, tt.err)
		}
	}
}
