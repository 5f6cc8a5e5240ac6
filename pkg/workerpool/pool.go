// Package workerpool runs a batch of independent tasks on a fixed number of
// goroutines and collects their results in input order.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Common errors
var (
	ErrInvalidSize = errors.New("workerpool: invalid pool size")
	ErrTaskPanic   = errors.New("workerpool: task panicked")
)

// Task handles one input.
type Task[In, Out any] func(ctx context.Context, in In) (Out, error)

// Config holds worker pool configuration
type Config struct {
	// Size is the number of workers in the pool
	Size int
	// QueueSize is the task queue buffer size (0 = unbuffered)
	QueueSize int
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Size:      runtime.NumCPU(),
		QueueSize: 100,
	}
}

// TaskError reports the input that failed.
type TaskError struct {
	Index int
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %v", e.Index, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Stats counts what a Map call did.
type Stats struct {
	Workers   int
	Completed int64
	Failed    int64
}

type job[In any] struct {
	index int
	in    In
}

// Map runs task over inputs on config.Size workers and returns the outputs
// in input order. The first failing task cancels the rest and Map returns
// its *TaskError. A panicking task fails with ErrTaskPanic.
func Map[In, Out any](ctx context.Context, config Config, inputs []In, task Task[In, Out]) ([]Out, Stats, error) {
	if config.Size <= 0 {
		return nil, Stats{}, ErrInvalidSize
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := config.Size
	if workers > len(inputs) {
		workers = len(inputs)
	}

	var (
		results   = make([]Out, len(inputs))
		jobs      = make(chan job[In], config.QueueSize)
		wg        sync.WaitGroup
		failOnce  sync.Once
		firstErr  error
		completed int64
		failed    int64
	)
	fail := func(err error) {
		atomic.AddInt64(&failed, 1)
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue // drain
				}
				out, err := execute(ctx, task, j.in)
				if err != nil {
					fail(&TaskError{Index: j.index, Err: err})
					continue
				}
				results[j.index] = out
				atomic.AddInt64(&completed, 1)
			}
		}()
	}

submit:
	for i, in := range inputs {
		select {
		case jobs <- job[In]{index: i, in: in}:
		case <-ctx.Done():
			break submit
		}
	}
	close(jobs)
	wg.Wait()

	stats := Stats{Workers: workers, Completed: completed, Failed: failed}
	if firstErr != nil {
		return nil, stats, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return results, stats, nil
}

// execute runs one task, turning a panic into ErrTaskPanic.
func execute[In, Out any](ctx context.Context, task Task[In, Out], in In) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return task(ctx, in)
}
