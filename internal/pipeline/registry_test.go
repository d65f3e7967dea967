package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"
)

type blockingRunner struct {
	mu      sync.Mutex
	calls   map[string]int
	release chan struct{}
	ctxs    []context.Context
}

func (b *blockingRunner) Run(ctx context.Context, jobID string) error {
	b.mu.Lock()
	b.calls[jobID]++
	b.ctxs = append(b.ctxs, ctx)
	b.mu.Unlock()
	<-b.release
	return nil
}

func TestRegistryLaunchIsIdempotentWhileRunning(t *testing.T) {
	runner := &blockingRunner{calls: map[string]int{}, release: make(chan struct{})}
	reg := NewRegistry(context.Background(), runner, nil)

	first := reg.Launch("job-1")
	second := reg.Launch("job-1")
	if first != second {
		t.Fatal("second launch returned a new task")
	}
	reg.Launch("job-2")
	if got := reg.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
	active := reg.Active()
	if len(active) != 2 {
		t.Fatalf("Active() = %d tasks, want 2", len(active))
	}

	close(runner.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := reg.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	select {
	case <-first.Done:
	default:
		t.Fatal("task not marked done")
	}
	if reg.Count() != 0 {
		t.Fatalf("Count() after wait = %d", reg.Count())
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.calls["job-1"] != 1 {
		t.Fatalf("job-1 runs = %d, want 1", runner.calls["job-1"])
	}
}

func TestRegistryRunsDetachedFromCaller(t *testing.T) {
	runner := &blockingRunner{calls: map[string]int{}, release: make(chan struct{})}
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	reg := NewRegistry(base, runner, nil)

	task := reg.Launch("job-1")
	close(runner.release)
	<-task.Done

	runner.mu.Lock()
	ctx := runner.ctxs[0]
	runner.mu.Unlock()
	if ctx.Err() != nil {
		t.Fatal("run context cancelled before base")
	}
	cancelBase()
	if ctx.Err() == nil {
		t.Fatal("run context not derived from base")
	}
}

func TestRegistryWaitTimesOut(t *testing.T) {
	runner := &blockingRunner{calls: map[string]int{}, release: make(chan struct{})}
	reg := NewRegistry(context.Background(), runner, nil)
	reg.Launch("job-1")
	defer close(runner.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := reg.Wait(ctx); err == nil {
		t.Fatal("expected timeout")
	}
}
