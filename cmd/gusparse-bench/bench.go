package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/LynnColeArt/gusparse"
)

func benchCmd() *cli.Command {
	var (
		rows    int64
		cols    int64
		density float64
		runs    int64
		seed    int64
		logDir  string
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time the conversion and addition kernels over a random matrix",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "rows", Aliases: []string{"m"}, Usage: "matrix rows", Value: 4096, Destination: &rows},
			&cli.Int64Flag{Name: "cols", Aliases: []string{"n"}, Usage: "matrix columns", Value: 4096, Destination: &cols},
			&cli.Float64Flag{Name: "density", Usage: "non-zero fraction", Value: 0.01, Destination: &density},
			&cli.Int64Flag{Name: "runs", Usage: "timed runs per operation", Value: 5, Destination: &runs},
			&cli.Int64Flag{Name: "seed", Usage: "random seed", Value: 42, Destination: &seed},
			&cli.StringFlag{Name: "log-dir", Usage: "benchmark session directory", Value: "bench_results", Destination: &logDir},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			h, err := gusparse.NewHandle()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: create handle: %v", err), 1)
			}
			defer func() { _ = h.Destroy() }()

			logger, err := gusparse.NewBenchmarkLogger(logDir, "kernels")
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open benchmark log: %v", err), 1)
			}

			b := &bench{
				h:    h,
				log:  logger,
				m:    int(rows),
				n:    int(cols),
				runs: int(runs),
			}
			if err := b.setup(rand.New(rand.NewSource(seed)), density); err != nil {
				return cli.Exit(fmt.Sprintf("error: build matrix: %v", err), 1)
			}

			fmt.Printf("=== gusparse bench ===\n")
			fmt.Printf("Matrix:  %dx%d, %d non-zeros (density %.4f)\n", b.m, b.n, b.nnz, density)
			fmt.Printf("Device:  %s, %d workers\n", h.Device().Name, h.Device().Workers)
			fmt.Printf("Runs:    %d\n\n", b.runs)
			fmt.Printf("%-16s %14s %12s\n", "Operation", "ns/op", "GB/s")

			ops := []struct {
				name string
				fn   func() error
			}{
				{"NnzCompress", b.nnzCompress},
				{"Csr2csc", b.csr2csc},
				{"Csr2bsr", b.csr2bsr},
				{"Csr2hyb", b.csr2hyb},
				{"Csrgeam", b.csrgeam},
			}
			for _, op := range ops {
				if err := b.run(op.name, op.fn); err != nil {
					return cli.Exit(fmt.Sprintf("error: %s: %v", op.name, err), 1)
				}
			}

			fmt.Printf("\nSession: %s\n", logger.SessionFile())
			return nil
		},
	}
}

// bench holds the device-resident input shared by every timed operation.
type bench struct {
	h    *gusparse.Handle
	log  *gusparse.BenchmarkLogger
	m, n int
	nnz  int
	runs int

	descr  *gusparse.MatDescr
	rowPtr gusparse.DevicePtr
	colInd gusparse.DevicePtr
	val    gusparse.DevicePtr
}

func (b *bench) setup(rng *rand.Rand, density float64) error {
	rowPtr := make([]int32, b.m+1)
	var colInd []int32
	var val []float32
	for i := 0; i < b.m; i++ {
		for j := 0; j < b.n; j++ {
			if rng.Float64() < density {
				colInd = append(colInd, int32(j))
				val = append(val, float32(rng.NormFloat64()))
			}
		}
		rowPtr[i+1] = int32(len(colInd))
	}
	b.nnz = len(colInd)
	b.descr = gusparse.NewMatDescr()

	var err error
	if b.rowPtr, err = b.h.Malloc((b.m + 1) * 4); err != nil {
		return err
	}
	if b.colInd, err = b.h.Malloc(b.nnz * 4); err != nil {
		return err
	}
	if b.val, err = b.h.Malloc(b.nnz * 4); err != nil {
		return err
	}
	copy(b.rowPtr.Int32(), rowPtr)
	copy(b.colInd.Int32(), colInd)
	copy(b.val.Float32(), val)
	return nil
}

// run times fn, prints one table row, and records the result.
func (b *bench) run(name string, fn func() error) error {
	// Warmup.
	if err := fn(); err != nil {
		b.log.Record(gusparse.BenchmarkResult{Name: name, Operation: name, Error: err.Error()})
		return err
	}

	start := time.Now()
	for i := 0; i < b.runs; i++ {
		if err := fn(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	nsPerOp := float64(elapsed.Nanoseconds()) / float64(b.runs)
	bytes := float64(b.nnz * 8) // one index and one value per entry
	gbPerSec := bytes / nsPerOp

	fmt.Printf("%-16s %14.0f %12.2f\n", name, nsPerOp, gbPerSec)
	return b.log.Record(gusparse.BenchmarkResult{
		Name:      fmt.Sprintf("%s/%dx%d", name, b.m, b.n),
		Operation: name,
		Rows:      b.m,
		Cols:      b.n,
		Nnz:       b.nnz,
		NsPerOp:   nsPerOp,
		GBPerSec:  gbPerSec,
		Duration:  elapsed,
	})
}

func (b *bench) nnzCompress() error {
	perRow, err := b.h.Malloc(b.m * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(perRow)

	var total int32
	if err := gusparse.NnzCompress[float32](b.h, b.m, b.descr, b.val, b.rowPtr, perRow, &total, 0.5); err != nil {
		return err
	}
	return b.h.Synchronize()
}

func (b *bench) csr2csc() error {
	var bufSize int
	err := gusparse.Csr2cscBufferSize(b.h, b.m, b.n, b.nnz, b.rowPtr, b.colInd, gusparse.ActionNumeric, &bufSize)
	if err != nil {
		return err
	}
	buf, err := b.h.Malloc(bufSize)
	if err != nil {
		return err
	}
	defer b.h.Free(buf)
	colPtr, err := b.h.Malloc((b.n + 1) * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(colPtr)
	rowInd, err := b.h.Malloc(b.nnz * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(rowInd)
	val, err := b.h.Malloc(b.nnz * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(val)

	err = gusparse.Csr2csc[float32](b.h, b.m, b.n, b.nnz, b.val, b.rowPtr, b.colInd,
		val, rowInd, colPtr, gusparse.ActionNumeric, gusparse.IndexBaseZero, buf)
	if err != nil {
		return err
	}
	return b.h.Synchronize()
}

func (b *bench) csr2bsr() error {
	const blockDim = 4
	mb := (b.m + blockDim - 1) / blockDim
	bsrRowPtr, err := b.h.Malloc((mb + 1) * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(bsrRowPtr)

	var nnzb int32
	err = gusparse.Csr2bsrNnz(b.h, gusparse.DirectionRow, b.m, b.n, b.descr,
		b.rowPtr, b.colInd, blockDim, b.descr, bsrRowPtr, &nnzb)
	if err != nil {
		return err
	}
	bsrColInd, err := b.h.Malloc(int(nnzb) * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(bsrColInd)
	bsrVal, err := b.h.Malloc(int(nnzb) * blockDim * blockDim * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(bsrVal)

	err = gusparse.Csr2bsr[float32](b.h, gusparse.DirectionRow, b.m, b.n, b.descr,
		b.val, b.rowPtr, b.colInd, blockDim, b.descr, bsrVal, bsrRowPtr, bsrColInd)
	if err != nil {
		return err
	}
	return b.h.Synchronize()
}

func (b *bench) csr2hyb() error {
	hyb := gusparse.NewHybMat()
	defer hyb.Destroy()

	err := gusparse.Csr2hyb[float32](b.h, b.m, b.n, b.descr, b.val, b.rowPtr, b.colInd,
		hyb, 0, gusparse.HybPartitionAuto)
	if err != nil {
		return err
	}
	return b.h.Synchronize()
}

func (b *bench) csrgeam() error {
	rowPtrC, err := b.h.Malloc((b.m + 1) * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(rowPtrC)

	var nnzC int32
	err = gusparse.CsrgeamNnz(b.h, b.m, b.n, b.descr, b.nnz, b.rowPtr, b.colInd,
		b.descr, b.nnz, b.rowPtr, b.colInd, b.descr, rowPtrC, &nnzC)
	if err != nil {
		return err
	}
	colIndC, err := b.h.Malloc(int(nnzC) * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(colIndC)
	valC, err := b.h.Malloc(int(nnzC) * 4)
	if err != nil {
		return err
	}
	defer b.h.Free(valC)

	alpha, beta := float32(1), float32(1)
	err = gusparse.Csrgeam[float32](b.h, b.m, b.n, &alpha,
		b.descr, b.nnz, b.val, b.rowPtr, b.colInd, &beta,
		b.descr, b.nnz, b.val, b.rowPtr, b.colInd,
		b.descr, valC, rowPtrC, colIndC)
	if err != nil {
		return err
	}
	return b.h.Synchronize()
}
