package leadimport

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

// ErrQueueFull is returned when a job cannot be accepted for execution.
var ErrQueueFull = errors.New("import queue is full")

// JobRunner executes one queued import job to completion or failure.
type JobRunner func(ctx context.Context, jobID uuid.UUID)

// WorkerQueue drains a FIFO queue of job identifiers with bounded
// concurrency (default one worker, so at most one import runs at a time).
// It is constructed once at process start and passed by reference; there is
// no package-level queue state.
type WorkerQueue struct {
	jobs        chan uuid.UUID
	concurrency int
	run         JobRunner
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// NewWorkerQueue creates a queue with the given worker count and capacity.
func NewWorkerQueue(concurrency, capacity int, run JobRunner) *WorkerQueue {
	if concurrency <= 0 {
		concurrency = 1
	}
	if capacity <= 0 {
		capacity = 100
	}
	return &WorkerQueue{
		jobs:        make(chan uuid.UUID, capacity),
		concurrency: concurrency,
		run:         run,
	}
}

// Start launches the workers. Workers exit when the queue is stopped or the
// context is cancelled; an in-flight job always runs to completion.
func (q *WorkerQueue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		for i := 0; i < q.concurrency; i++ {
			q.wg.Add(1)
			go q.worker(ctx)
		}
	})
}

func (q *WorkerQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case jobID, ok := <-q.jobs:
			if !ok {
				return
			}
			q.run(ctx, jobID)
		}
	}
}

// Enqueue accepts a job for background execution, returning ErrQueueFull
// when the queue is at capacity rather than blocking the caller.
func (q *WorkerQueue) Enqueue(jobID uuid.UUID) error {
	select {
	case q.jobs <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for the workers to drain in-flight work.
// Jobs still queued when the context is cancelled remain queued in the job
// store and require manual inspection.
func (q *WorkerQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
	log.Println("[import] worker queue stopped")
}
