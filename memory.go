package gusparse

import (
	"fmt"
	"sync"
	"unsafe"
)

// MemcpyKind specifies the direction of memory transfer. In the unified
// memory model these are kept for API symmetry with device runtimes but are
// all serviced by the same copy.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
)

// DevicePtr represents a pointer to device memory. It provides typed slice
// views of the underlying data and pointer arithmetic through Offset.
type DevicePtr struct {
	ptr    unsafe.Pointer
	size   int
	offset int
}

// IsNil reports whether the pointer refers to no memory. Operations treat a
// nil DevicePtr argument the way a device library treats a null pointer.
func (d DevicePtr) IsNil() bool {
	return d.ptr == nil
}

// Size returns the size in bytes of the memory region.
func (d DevicePtr) Size() int {
	return d.size
}

// Offset returns a new DevicePtr advanced by the given number of bytes.
// The returned DevicePtr shares the same underlying memory.
func (d DevicePtr) Offset(bytes int) DevicePtr {
	return DevicePtr{
		ptr:    unsafe.Add(d.ptr, bytes),
		size:   d.size - bytes,
		offset: d.offset + bytes,
	}
}

// Float32 returns a float32 slice view of the device memory.
func (d DevicePtr) Float32() []float32 {
	return deviceView[float32](d)
}

// Float64 returns a float64 slice view of the device memory.
func (d DevicePtr) Float64() []float64 {
	return deviceView[float64](d)
}

// Complex64 returns a complex64 slice view of the device memory.
func (d DevicePtr) Complex64() []complex64 {
	return deviceView[complex64](d)
}

// Complex128 returns a complex128 slice view of the device memory.
func (d DevicePtr) Complex128() []complex128 {
	return deviceView[complex128](d)
}

// Int32 returns an int32 slice view of the device memory. Index and offset
// arrays are stored as int32, matching the 32-bit index width of the API.
func (d DevicePtr) Int32() []int32 {
	return deviceView[int32](d)
}

// Byte returns a byte slice view of the entire memory region.
func (d DevicePtr) Byte() []byte {
	return deviceView[byte](d)
}

// deviceView reinterprets the full region as a slice of T.
func deviceView[T any](d DevicePtr) []T {
	if d.ptr == nil {
		return nil
	}
	var zero T
	n := d.size / int(unsafe.Sizeof(zero))
	return unsafe.Slice((*T)(d.ptr), n)
}

// deviceSlice reinterprets the first n elements of the region as a slice of
// T. Kernels use this to obtain their typed working views.
func deviceSlice[T any](d DevicePtr, n int) []T {
	if d.ptr == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*T)(d.ptr), n)
}

// MemoryPool manages device memory allocation with free-list reuse to
// reduce allocation overhead across repeated kernel calls.
type MemoryPool struct {
	mu         sync.Mutex
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	buf  []byte // retains the backing array
	ptr  unsafe.Pointer
	size int
	used bool
}

// NewMemoryPool creates a new memory pool.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		allocated: make(map[uintptr]*allocation),
	}
}

// Allocate allocates memory from the pool, aligned for SIMD access.
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size < 0 {
		return DevicePtr{}, errInvalidSize("Malloc", "size must be non-negative")
	}
	if size == 0 {
		return DevicePtr{}, nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	const alignment = 64 // cache line
	alignedSize := (size + alignment - 1) &^ (alignment - 1)

	// Try to reuse from the free list.
	for i, alloc := range mp.freeList {
		if alloc.size >= alignedSize {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true
			mp.totalAlloc += int64(alloc.size)
			if mp.totalAlloc > mp.peakAlloc {
				mp.peakAlloc = mp.totalAlloc
			}
			return DevicePtr{ptr: alloc.ptr, size: size}, nil
		}
	}

	buf := make([]byte, alignedSize)
	alloc := &allocation{
		buf:  buf,
		ptr:  unsafe.Pointer(&buf[0]),
		size: alignedSize,
		used: true,
	}
	mp.allocated[uintptr(alloc.ptr)] = alloc

	mp.totalAlloc += int64(alignedSize)
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}

	return DevicePtr{ptr: alloc.ptr, size: size}, nil
}

// Free returns memory to the pool. Freeing a zero DevicePtr is a no-op.
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	if ptr.ptr == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	alloc, ok := mp.allocated[uintptr(ptr.ptr)]
	if !ok {
		return errMemory("Free", "pointer not found in allocation pool", nil)
	}
	if !alloc.used {
		return errMemory("Free", "double free detected", nil)
	}

	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(alloc.size)

	return nil
}

// Stats returns the currently allocated and peak byte counts.
func (mp *MemoryPool) Stats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// Memcpy copies memory between host and device. Supports DevicePtr and the
// slice types the library's arrays are made of.
func Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	dstPtr, err := rawPointer("Memcpy", "dst", dst)
	if err != nil {
		return err
	}
	srcPtr, err := rawPointer("Memcpy", "src", src)
	if err != nil {
		return err
	}

	if dstPtr != nil && srcPtr != nil && size > 0 {
		copy(unsafe.Slice((*byte)(dstPtr), size), unsafe.Slice((*byte)(srcPtr), size))
	}
	return nil
}

func rawPointer(op, arg string, v interface{}) (unsafe.Pointer, error) {
	switch s := v.(type) {
	case DevicePtr:
		return s.ptr, nil
	case unsafe.Pointer:
		return s, nil
	case []byte:
		if len(s) > 0 {
			return unsafe.Pointer(&s[0]), nil
		}
	case []int32:
		if len(s) > 0 {
			return unsafe.Pointer(&s[0]), nil
		}
	case []float32:
		if len(s) > 0 {
			return unsafe.Pointer(&s[0]), nil
		}
	case []float64:
		if len(s) > 0 {
			return unsafe.Pointer(&s[0]), nil
		}
	case []complex64:
		if len(s) > 0 {
			return unsafe.Pointer(&s[0]), nil
		}
	case []complex128:
		if len(s) > 0 {
			return unsafe.Pointer(&s[0]), nil
		}
	default:
		return nil, errInvalidValue(op, fmt.Sprintf("unsupported %s type: %T", arg, v))
	}
	return nil, nil
}
