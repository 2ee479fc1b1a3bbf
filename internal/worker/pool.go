// Package worker renders batches of strips in parallel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
)

// Generator renders and stores one strip. pipeline.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, key stripkey.Key, force bool, suffix string) (string, error)
}

// Task is one strip to generate.
type Task struct {
	Key    stripkey.Key
	Suffix string
	Force  bool
}

// String names the task like the files it produces.
func (t Task) String() string {
	return t.Key.String() + t.Suffix
}

// Result is the outcome of a task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool runs strip tasks on a fixed number of goroutines.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

// New creates a worker pool with at least one worker.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and blocks until they finish or ctx is cancelled.
// It returns one result per task in task order; tasks never started because
// of cancellation carry ctx's error.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	type indexed struct {
		i      int
		result Result
	}

	taskCh := make(chan int)
	resultCh := make(chan indexed, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskCh {
				resultCh <- indexed{i: i, result: p.run(ctx, tasks[i])}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for i := range tasks {
			select {
			case taskCh <- i:
			case <-ctx.Done():
				for ; i < len(tasks); i++ {
					resultCh <- indexed{i: i, result: Result{Task: tasks[i], Err: ctx.Err()}}
				}
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		// The feeder has returned once taskCh is drained and closed.
		close(resultCh)
	}()

	results := make([]Result, len(tasks))
	var completed, failed int
	for r := range resultCh {
		results[r.i] = r.result
		completed++
		if r.result.Err != nil {
			failed++
		}
		if p.onProgress != nil {
			p.onProgress(completed, len(tasks), failed)
		}
	}

	return results
}

func (p *Pool) run(ctx context.Context, task Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Task: task, Err: err}
	}

	start := time.Now()
	path, err := p.generator.Generate(ctx, task.Key, task.Force, task.Suffix)
	return Result{
		Task:    task,
		Path:    path,
		Err:     err,
		Elapsed: time.Since(start),
	}
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Tasks expands keys into tasks, adding a HiDPI task per key when hidpi is set.
func Tasks(keys []stripkey.Key, force, hidpi bool) []Task {
	tasks := make([]Task, 0, len(keys)*2)
	for _, k := range keys {
		tasks = append(tasks, Task{Key: k, Force: force})
		if hidpi {
			tasks = append(tasks, Task{Key: k, Force: force, Suffix: stripkey.HiDPISuffix})
		}
	}
	return tasks
}
