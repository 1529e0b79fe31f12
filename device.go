package gusparse

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// DeviceInfo describes the compute device backing a handle. On CPU this is
// the host itself: its core count bounds kernel fan-out, and its SIMD
// feature set is reported for diagnostics.
type DeviceInfo struct {
	Name      string
	Workers   int // bound on concurrent blocks per launch
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool
}

// cpuDevice probes the host once per handle creation.
func cpuDevice() DeviceInfo {
	return DeviceInfo{
		Name:      "CPU",
		Workers:   defaultWorkers(),
		HasAVX2:   cpu.X86.HasAVX2 && cpu.X86.HasFMA,
		HasAVX512: cpu.X86.HasAVX512F,
		HasNEON:   runtime.GOARCH == "arm64" && cpu.ARM64.HasASIMD,
	}
}

// Features returns a string describing the detected SIMD extensions.
func (d DeviceInfo) Features() string {
	var features []string
	if d.HasAVX2 {
		features = append(features, "AVX2+FMA")
	}
	if d.HasAVX512 {
		features = append(features, "AVX512F")
	}
	if d.HasNEON {
		features = append(features, "NEON")
	}
	if len(features) == 0 {
		return "no SIMD extensions detected"
	}
	return strings.Join(features, ", ")
}
