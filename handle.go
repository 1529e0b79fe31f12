package gusparse

import (
	"log/slog"
	"os"
	"strings"
)

// Handle is the execution context shared by all library operations. It owns
// an asynchronous stream, a pointer-mode flag for scalar inputs and
// outputs, a reusable device scratch buffer, and the wavefront width used
// to select kernel specializations.
//
// A handle is created once and shared read-only by operations. Concurrent
// calls on the same handle from independent goroutines require external
// synchronization; the library does not serialize them.
type Handle struct {
	stream      *Stream
	ownedStream *Stream
	pointerMode PointerMode
	waveSize    int
	pool        *MemoryPool
	scratch     DevicePtr
	scratchSize int
	device      DeviceInfo
	tuning      Tuning
	log         *slog.Logger
}

// HandleOption configures a handle at creation.
type HandleOption func(*Handle)

// WithWavefrontSize sets the wavefront width used for kernel dispatch.
// Values other than 32 and 64 cause segmented kernels to fail with an
// arch-mismatch status.
func WithWavefrontSize(n int) HandleOption {
	return func(h *Handle) { h.waveSize = n }
}

// WithScratchSize sets the capacity of the handle's reusable scratch
// buffer.
func WithScratchSize(bytes int) HandleOption {
	return func(h *Handle) { h.scratchSize = bytes }
}

// WithLogger attaches a structured logger for call tracing.
func WithLogger(l *slog.Logger) HandleOption {
	return func(h *Handle) { h.log = l }
}

// NewHandle creates an execution context with its own stream, memory pool
// and scratch buffer.
func NewHandle(opts ...HandleOption) (*Handle, error) {
	tuning, err := loadTuning()
	if err != nil {
		return nil, errInvalidValue("NewHandle", err.Error())
	}

	h := &Handle{
		pointerMode: PointerModeHost,
		waveSize:    DefaultWavefrontSize,
		pool:        NewMemoryPool(),
		scratchSize: DefaultScratchSize,
		device:      cpuDevice(),
		tuning:      tuning,
		log:         envLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tuning.Workers > 0 {
		h.device.Workers = h.tuning.Workers
	}

	h.ownedStream = NewStream()
	h.stream = h.ownedStream

	if h.scratchSize > 0 {
		h.scratch, err = h.pool.Allocate(h.scratchSize)
		if err != nil {
			h.ownedStream.Destroy()
			return nil, errMemory("NewHandle", "scratch buffer allocation failed", err)
		}
	}

	return h, nil
}

// Destroy synchronizes and releases the handle's resources.
func (h *Handle) Destroy() error {
	if h == nil {
		return errInvalidHandle("Destroy")
	}
	err := h.ownedStream.Destroy()
	if !h.scratch.IsNil() {
		if ferr := h.pool.Free(h.scratch); err == nil {
			err = ferr
		}
	}
	return err
}

// Stream returns the stream operations are issued on.
func (h *Handle) Stream() *Stream {
	return h.stream
}

// SetStream redirects subsequent operations to a caller-supplied stream.
// Passing nil restores the handle's own stream.
func (h *Handle) SetStream(s *Stream) {
	if s == nil {
		h.stream = h.ownedStream
		return
	}
	h.stream = s
}

// PointerMode returns the handle's pointer mode.
func (h *Handle) PointerMode() PointerMode {
	return h.pointerMode
}

// SetPointerMode sets whether scalar inputs and outputs refer to host or
// device memory.
func (h *Handle) SetPointerMode(mode PointerMode) {
	h.pointerMode = mode
}

// WavefrontSize returns the lane width used for kernel dispatch.
func (h *Handle) WavefrontSize() int {
	return h.waveSize
}

// Device returns information about the compute device backing the handle.
func (h *Handle) Device() DeviceInfo {
	return h.device
}

// Malloc allocates device memory from the handle's pool.
func (h *Handle) Malloc(size int) (DevicePtr, error) {
	return h.pool.Allocate(size)
}

// Free releases device memory allocated from the handle's pool.
func (h *Handle) Free(ptr DevicePtr) error {
	return h.pool.Free(ptr)
}

// Synchronize waits for all work issued on the handle's current stream.
func (h *Handle) Synchronize() error {
	return h.stream.Synchronize()
}

// borrowScratch returns a buffer of at least size bytes: the handle's
// scratch buffer when it is large enough, otherwise a temporary allocation
// the caller must release through releaseScratch. The scratch buffer is
// only ever lent within a single operation.
func (h *Handle) borrowScratch(op string, size int) (buf DevicePtr, temporary bool, err error) {
	if size <= h.scratchSize {
		return h.scratch, false, nil
	}
	buf, err = h.pool.Allocate(size)
	if err != nil {
		return DevicePtr{}, false, errMemory(op, "temporary buffer allocation failed", err)
	}
	return buf, true, nil
}

// releaseScratch frees a temporary buffer returned by borrowScratch.
func (h *Handle) releaseScratch(buf DevicePtr, temporary bool) {
	if temporary {
		h.pool.Free(buf)
	}
}

// trace logs an entry-point call with its parameters, when tracing is on.
func (h *Handle) trace(op string, args ...any) {
	if h.log != nil {
		h.log.Debug(op, args...)
	}
}

// envLogger builds the default trace logger from GUSPARSE_LOG_LEVEL.
// Unset or unrecognized values disable tracing.
func envLogger() *slog.Logger {
	level := strings.ToLower(os.Getenv("GUSPARSE_LOG_LEVEL"))
	var l slog.Level
	switch level {
	case "debug", "trace":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	default:
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
