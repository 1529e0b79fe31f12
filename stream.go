package gusparse

import (
	"sync"
	"sync/atomic"
)

// Stream represents an ordered sequence of operations that execute
// asynchronously. Operations within a stream execute in submission order;
// operations on different streams are unordered with respect to each other.
//
// A kernel failure is sticky: once a task on the stream fails, the error is
// reported by every subsequent Synchronize until the stream is destroyed.
type Stream struct {
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup
	err   atomic.Value // *SparseError
}

// NewStream creates a stream with its own worker goroutine.
func NewStream() *Stream {
	s := &Stream{
		tasks: make(chan func(), 1024),
		done:  make(chan struct{}),
	}
	go s.worker()
	return s
}

// worker drains tasks in order.
func (s *Stream) worker() {
	for task := range s.tasks {
		task()
		s.wg.Done()
	}
	close(s.done)
}

// Submit enqueues a task on the stream.
func (s *Stream) Submit(task func()) {
	s.wg.Add(1)
	s.tasks <- task
}

// Synchronize blocks until all submitted tasks have completed and returns
// the stream's sticky error, if any.
func (s *Stream) Synchronize() error {
	s.wg.Wait()
	return s.Err()
}

// Err returns the stream's sticky error without synchronizing.
func (s *Stream) Err() error {
	if e, ok := s.err.Load().(*SparseError); ok && e != nil {
		return e
	}
	return nil
}

// setErr records the first failure observed on the stream.
func (s *Stream) setErr(err error) {
	if err == nil {
		return
	}
	se, ok := err.(*SparseError)
	if !ok {
		se = &SparseError{Status: StatusInternalError, Op: "Stream", Message: "task failed", Err: err}
	}
	s.err.CompareAndSwap(nil, se)
}

// Destroy drains the stream and stops its worker. The stream must not be
// used afterwards.
func (s *Stream) Destroy() error {
	err := s.Synchronize()
	close(s.tasks)
	<-s.done
	return err
}
