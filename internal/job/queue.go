package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Queue feeds requests to a fixed pool of worker goroutines, each driving the
// shared Runner.
type Queue struct {
	runner  *Runner
	work    chan Request
	wg      sync.WaitGroup
	closing sync.Once
}

// NewQueue creates a queue holding at most depth pending requests.
func NewQueue(runner *Runner, depth int) *Queue {
	if depth < 1 {
		depth = 1
	}
	return &Queue{
		runner: runner,
		work:   make(chan Request, depth),
	}
}

// Start launches workers pipeline workers. They exit when the queue is closed
// or ctx is cancelled.
func (q *Queue) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func(n int) {
			defer q.wg.Done()
			for {
				select {
				case req, ok := <-q.work:
					if !ok {
						return
					}
					fmt.Printf("worker %d: picked up job %s\n", n, req.ID)
					q.runner.Run(ctx, req)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
}

// Submit enqueues the request without blocking. A full queue is reported as a
// transient failure so the caller can surface backpressure.
func (q *Queue) Submit(req Request) error {
	select {
	case q.work <- req:
		return nil
	default:
		return &Failure{Class: ClassTransient, Err: errors.New("queue full")}
	}
}

// Close stops accepting work and waits for in-flight jobs to finish.
func (q *Queue) Close() {
	q.closing.Do(func() { close(q.work) })
	q.wg.Wait()
}
