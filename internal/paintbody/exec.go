package paintbody

import (
	"log/slog"
	"math/rand"
	"runtime"
	"runtime/debug"

	"github.com/pkg/errors"
)

// TraceFunc receives structured events from branches worth observing
// (masked painting, clamped projections, chunk boundaries). It may be
// called from worker goroutines.
type TraceFunc func(event string, attrs ...any)

// Exec is the execution-context handle passed explicitly through every
// render call: randomness, worker limit, logging, trace hook and scratch.
// An Exec is not safe for concurrent renders.
type Exec struct {
	Rand    *rand.Rand
	Workers int
	Logger  *slog.Logger
	Trace   TraceFunc
	// MaxScratch bounds the float32 scratch one chunk may request; 0 = unlimited.
	MaxScratch int

	scratch []float32
}

// NewExec returns an Exec seeded with seed using NumCPU workers.
func NewExec(seed int64) *Exec {
	return &Exec{
		Rand:    rand.New(rand.NewSource(seed)),
		Workers: runtime.NumCPU(),
		Logger:  logger,
	}
}

func (ex *Exec) workers() int {
	if ex == nil || ex.Workers < 1 {
		return 1
	}
	return ex.Workers
}

func (ex *Exec) log() *slog.Logger {
	if ex == nil || ex.Logger == nil {
		return logger
	}
	return ex.Logger
}

func (ex *Exec) trace(event string, attrs ...any) {
	if ex != nil && ex.Trace != nil {
		ex.Trace(event, attrs...)
	}
}

// buffer returns a zeroed scratch slice of length n, reusing the previous
// allocation when it is large enough. The slice is only valid until the
// next buffer call.
func (ex *Exec) buffer(n int) ([]float32, error) {
	if ex.MaxScratch > 0 && n > ex.MaxScratch {
		return nil, errors.Wrapf(ErrResourceExhaustion, "chunk needs %d scratch floats, limit is %d; lower chunkSize", n, ex.MaxScratch)
	}
	if cap(ex.scratch) < n {
		ex.scratch = make([]float32, n)
		return ex.scratch, nil
	}
	ex.scratch = ex.scratch[:n]
	clear(ex.scratch)
	return ex.scratch, nil
}

// Release drops scratch buffers and returns freed memory to the OS.
func (ex *Exec) Release() {
	ex.scratch = nil
	runtime.GC()
	debug.FreeOSMemory()
}
