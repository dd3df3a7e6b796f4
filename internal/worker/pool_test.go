package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	idx int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	idx       int
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{idx: j.idx, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{idx: j.idx, err: errors.New("job error")}
	}
	return &mockResult{idx: j.idx}
}

func cancelledResult(idx int) Result {
	return &mockResult{idx: idx, err: context.Canceled}
}

func TestNewPool(t *testing.T) {
	if p := NewPool(5); p.workers != 5 {
		t.Errorf("expected 5 workers, got %d", p.workers)
	}
	if p := NewPool(0); p.workers != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p.workers)
	}
	if p := NewPool(-1); p.workers != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p.workers)
	}
}

func TestPool_RunKeepsOrder(t *testing.T) {
	var executed int32
	jobs := make([]Job, 20)
	for i := range jobs {
		// later jobs finish first
		jobs[i] = &mockJob{idx: i, duration: time.Duration(20-i) * time.Millisecond, executed: &executed}
	}

	results := NewPool(4).Run(context.Background(), jobs, cancelledResult)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, res := range results {
		if got := res.(*mockResult).idx; got != i {
			t.Errorf("result %d belongs to job %d", i, got)
		}
	}
	if atomic.LoadInt32(&executed) != int32(len(jobs)) {
		t.Errorf("expected %d executed jobs, got %d", len(jobs), executed)
	}
}

// concurrencyJob tracks max concurrent executions
type concurrencyJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	if j.start != nil {
		j.start()
	}
	time.Sleep(j.duration)
	if j.end != nil {
		j.end()
	}
	return &mockResult{}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 5

	var current int32
	var maxConcurrent int32
	var mu sync.Mutex

	jobs := make([]Job, 30)
	for i := range jobs {
		jobs[i] = &concurrencyJob{
			start: func() {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
			},
			end: func() {
				atomic.AddInt32(&current, -1)
			},
			duration: 5 * time.Millisecond,
		}
	}

	NewPool(workers).Run(context.Background(), jobs, cancelledResult)

	mu.Lock()
	max := maxConcurrent
	mu.Unlock()

	if max > int32(workers) {
		t.Errorf("max concurrency %d exceeded workers %d", max, workers)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	jobs := []Job{&mockJob{shouldErr: true}, &mockJob{}}

	results := NewPool(2).Run(context.Background(), jobs, cancelledResult)

	if results[0].GetError() == nil {
		t.Error("expected first job to fail")
	}
	if results[1].GetError() != nil {
		t.Errorf("expected second job to succeed, got %v", results[1].GetError())
	}
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed int32
	jobs := []Job{&mockJob{executed: &executed}, &mockJob{executed: &executed}}

	results := NewPool(1).Run(ctx, jobs, cancelledResult)

	if atomic.LoadInt32(&executed) != 0 {
		t.Errorf("expected no job to run after cancellation, got %d", executed)
	}
	for i, res := range results {
		if !errors.Is(res.GetError(), context.Canceled) {
			t.Errorf("result %d: expected context.Canceled, got %v", i, res.GetError())
		}
	}
}

func TestPool_Empty(t *testing.T) {
	if results := NewPool(3).Run(context.Background(), nil, cancelledResult); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
