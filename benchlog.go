package gusparse

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// BenchmarkResult captures the result of a single kernel benchmark run.
type BenchmarkResult struct {
	Name      string        `json:"name"`
	Operation string        `json:"operation"` // library entry point exercised
	Rows      int           `json:"rows,omitempty"`
	Cols      int           `json:"cols,omitempty"`
	Nnz       int           `json:"nnz,omitempty"`
	NsPerOp   float64       `json:"ns_per_op,omitempty"`
	GBPerSec  float64       `json:"gb_per_sec,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// BenchmarkLogger accumulates benchmark results and flushes them to a JSON
// session file.
type BenchmarkLogger struct {
	mu          sync.Mutex
	results     []BenchmarkResult
	logDir      string
	sessionFile string
}

// NewBenchmarkLogger starts a session under dir, named by the session name
// and a fresh session ID.
func NewBenchmarkLogger(dir, sessionName string) (*BenchmarkLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	l := &BenchmarkLogger{
		logDir: dir,
		sessionFile: filepath.Join(dir,
			fmt.Sprintf("%s_%s.json", sessionName, uuid.NewString())),
	}
	return l, l.flush()
}

// Record appends a result and rewrites the session file.
func (l *BenchmarkLogger) Record(r BenchmarkResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	l.results = append(l.results, r)
	return l.flush()
}

// SessionFile returns the path of the session's JSON file.
func (l *BenchmarkLogger) SessionFile() string {
	return l.sessionFile
}

func (l *BenchmarkLogger) flush() error {
	data, err := json.MarshalIndent(l.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(l.sessionFile, data, 0o644)
}
