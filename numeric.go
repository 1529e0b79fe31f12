package gusparse

import (
	"math"
	"math/cmplx"
	"unsafe"
)

// Scalar is the element-type constraint of every value kernel. The four
// types support native addition and scaling; magnitude and the real part
// are supplied by the helpers below.
type Scalar interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// magnitude returns |v| as a float64 for tolerance comparisons.
func magnitude[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return math.Abs(float64(x))
	case float64:
		return math.Abs(x)
	case complex64:
		return cmplx.Abs(complex128(x))
	case complex128:
		return cmplx.Abs(x)
	}
	return 0
}

// realPart returns the real component of v. Tolerances are carried in the
// element type; only their real part is meaningful.
func realPart[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case complex64:
		return float64(real(x))
	case complex128:
		return real(x)
	}
	return 0
}

// scalarSize returns the byte width of T.
func scalarSize[T Scalar]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
