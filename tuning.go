package gusparse

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning carries the launch parameters a handle uses for kernel dispatch.
// Defaults come from config.go; a YAML file named by the GUSPARSE_TUNING
// environment variable can override individual fields for a machine where
// the defaults are wrong.
type Tuning struct {
	// NnzCompressBlockSize is the scheduling block of the tolerance filter
	// kernels.
	NnzCompressBlockSize int `yaml:"nnz_compress_block_size"`
	// DenseRowsPerBlock is the rows-or-columns per block of the dense
	// conversion kernels.
	DenseRowsPerBlock int `yaml:"dense_rows_per_block"`
	// ReduceBlockSize is the partial size of the sum reduction.
	ReduceBlockSize int `yaml:"reduce_block_size"`
	// Workers overrides the launch fan-out; 0 keeps the probed core count.
	Workers int `yaml:"workers"`
}

// TuningEnv names the environment variable holding the override file path.
const TuningEnv = "GUSPARSE_TUNING"

func defaultTuning() Tuning {
	return Tuning{
		NnzCompressBlockSize: NnzCompressBlockSize,
		DenseRowsPerBlock:    DenseConvRowsPerBlock,
		ReduceBlockSize:      ReduceBlockSize,
	}
}

// loadTuning returns the default tuning, merged with the override file if
// one is configured. A missing variable is not an error; an unreadable or
// malformed file is.
func loadTuning() (Tuning, error) {
	t := defaultTuning()

	path := os.Getenv(TuningEnv)
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("reading tuning file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parsing tuning file %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	if t.NnzCompressBlockSize <= 0 || t.NnzCompressBlockSize&(t.NnzCompressBlockSize-1) != 0 {
		return fmt.Errorf("nnz_compress_block_size must be a positive power of two, got %d", t.NnzCompressBlockSize)
	}
	if t.DenseRowsPerBlock <= 0 {
		return fmt.Errorf("dense_rows_per_block must be positive, got %d", t.DenseRowsPerBlock)
	}
	if t.ReduceBlockSize <= 0 {
		return fmt.Errorf("reduce_block_size must be positive, got %d", t.ReduceBlockSize)
	}
	if t.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", t.Workers)
	}
	return nil
}
