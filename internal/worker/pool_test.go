package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
)

// mockGenerator simulates strip generation.
type mockGenerator struct {
	delay     time.Duration
	fail      map[string]bool // task names that should fail
	callCount atomic.Int32
	inFlight  atomic.Int32
	peak      atomic.Int32
}

func (m *mockGenerator) Generate(ctx context.Context, key stripkey.Key, force bool, suffix string) (string, error) {
	m.callCount.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(m.delay):
	}

	name := key.String() + suffix
	if m.fail[name] {
		return "", errors.New("simulated failure")
	}
	return "/tmp/" + name + ".png", nil
}

func hueTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Key: stripkey.Key{Width: 100 + i, Height: 20, Base: stripkey.HueBase}}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	gen := &mockGenerator{delay: 10 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	tasks := hueTasks(3)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task, r.Err)
		}
		if r.Task != tasks[i] {
			t.Errorf("Result %d is for %s, want %s", i, r.Task, tasks[i])
		}
		if r.Path != "/tmp/"+tasks[i].String()+".png" {
			t.Errorf("Unexpected path %q", r.Path)
		}
	}
	if gen.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d generator calls, got %d", len(tasks), gen.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	gen := &mockGenerator{delay: 30 * time.Millisecond}
	pool := New(Config{Workers: 4, Generator: gen})

	results := pool.Run(context.Background(), hueTasks(8))
	if len(results) != 8 {
		t.Errorf("Expected 8 results, got %d", len(results))
	}
	if peak := gen.peak.Load(); peak < 2 || peak > 4 {
		t.Errorf("Expected between 2 and 4 concurrent generations, got %d", peak)
	}
}

func TestPool_SingleWorkerDefault(t *testing.T) {
	gen := &mockGenerator{delay: 5 * time.Millisecond}
	pool := New(Config{Generator: gen})

	pool.Run(context.Background(), hueTasks(4))
	if peak := gen.peak.Load(); peak != 1 {
		t.Errorf("Expected a single worker, saw %d concurrent generations", peak)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	tasks := hueTasks(3)
	gen := &mockGenerator{
		delay: 10 * time.Millisecond,
		fail:  map[string]bool{tasks[1].String(): true},
	}
	pool := New(Config{Workers: 2, Generator: gen})

	results := pool.Run(context.Background(), tasks)
	if len(results) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(results))
	}

	failed := Failed(results)
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(failed))
	}
	if failed[0].Task != tasks[1] {
		t.Errorf("Unexpected failure for %s", failed[0].Task)
	}
}

func TestPool_Cancellation(t *testing.T) {
	gen := &mockGenerator{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	tasks := hueTasks(10)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}
	if len(results) != len(tasks) {
		t.Fatalf("Expected a result per task, got %d", len(results))
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("Expected %s to be cancelled, got %v", r.Task, r.Err)
		}
	}
	if calls := gen.callCount.Load(); calls > 4 {
		t.Errorf("Expected few generator calls after cancellation, got %d", calls)
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	gen := &mockGenerator{delay: 5 * time.Millisecond}

	var progressCalls int
	var lastCompleted, lastTotal int
	pool := New(Config{
		Workers:   2,
		Generator: gen,
		OnProgress: func(completed, total, failed int) {
			progressCalls++
			lastCompleted = completed
			lastTotal = total
		},
	})

	tasks := hueTasks(3)
	pool.Run(context.Background(), tasks)

	if progressCalls != len(tasks) {
		t.Errorf("Expected %d progress callbacks, got %d", len(tasks), progressCalls)
	}
	if lastCompleted != len(tasks) || lastTotal != len(tasks) {
		t.Errorf("Expected final progress %d/%d, got %d/%d", len(tasks), len(tasks), lastCompleted, lastTotal)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	gen := &mockGenerator{}
	pool := New(Config{Workers: 2, Generator: gen})

	if results := pool.Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if gen.callCount.Load() != 0 {
		t.Errorf("Expected 0 generator calls, got %d", gen.callCount.Load())
	}
}

func TestTasks_HiDPI(t *testing.T) {
	keys := []stripkey.Key{
		{Width: 300, Height: 20, Base: stripkey.HueBase},
		{Width: 300, Height: 20, Base: "3366ff"},
	}

	tasks := Tasks(keys, true, true)
	want := []string{"w300_h20_hue", "w300_h20_hue@2x", "w300_h20_c3366ff", "w300_h20_c3366ff@2x"}
	if len(tasks) != len(want) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, task := range tasks {
		if task.String() != want[i] {
			t.Errorf("Task %d = %s, want %s", i, task, want[i])
		}
		if !task.Force {
			t.Errorf("Task %d should be forced", i)
		}
	}

	if n := len(Tasks(keys, false, false)); n != 2 {
		t.Errorf("Expected 2 tasks without hidpi, got %d", n)
	}
}
