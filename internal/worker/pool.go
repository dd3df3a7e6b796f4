package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

type indexedJob struct {
	idx int
	job Job
}

// Run executes all jobs and returns their results in submission order.
// Jobs not started before ctx is cancelled get a nil result slot filled by
// cancelled(idx), so callers always receive len(jobs) results.
func (p *Pool) Run(ctx context.Context, jobs []Job, cancelled func(idx int) Result) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	queue := make(chan indexedJob, p.workers*2)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ij := range queue {
				if ctx.Err() != nil {
					results[ij.idx] = cancelled(ij.idx)
					continue
				}
				results[ij.idx] = ij.job.Execute(ctx)
			}
		}()
	}

	for i, job := range jobs {
		queue <- indexedJob{idx: i, job: job}
	}
	close(queue)

	wg.Wait()
	return results
}
