// Package worker runs the fixed pool of job consumers.
package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openscribe/openscribe/internal/retention"
	"github.com/openscribe/openscribe/pkg/jobstore"
	"github.com/openscribe/openscribe/pkg/queue"
)

// Runner executes one job to a terminal state. Implementations capture
// every failure into the job record; the worker loop never sees it.
type Runner interface {
	Run(ctx context.Context, job *jobstore.Job)
}

// Pool drains the submission queue with a fixed number of workers.
// Each worker handles one job at a time, so at most Size jobs are ever
// processing concurrently; that bound is the system's only
// backpressure. There is no per-job timeout: a hung tool invocation
// keeps its worker occupied until the process exits.
type Pool struct {
	size      int
	store     *jobstore.Store
	queue     *queue.Queue
	runner    Runner
	retention *retention.Manager
	logger    *zap.Logger

	wg sync.WaitGroup
}

func NewPool(size int, store *jobstore.Store, q *queue.Queue, runner Runner, ret *retention.Manager, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		size:      size,
		store:     store,
		queue:     q,
		runner:    runner,
		retention: ret,
		logger:    logger,
	}
}

// Start launches the workers. They run until the queue is closed and
// drained.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context, n int) {
	defer p.wg.Done()
	logger := p.logger.With(zap.Int("worker", n))

	for {
		id, ok := p.queue.Dequeue()
		if !ok {
			logger.Debug("queue closed, worker exiting")
			return
		}

		job, err := p.store.Get(id)
		if err != nil {
			// Transient inconsistency (record already cleaned up);
			// never fatal to the loop.
			logger.Warn("dequeued id has no record", zap.String("job_id", id))
			p.queue.Remove(id)
			continue
		}

		job.SetProcessing()
		logger.Info("job started",
			zap.String("job_id", id),
			zap.String("file", job.FileName()))

		p.runJob(ctx, job, logger)

		p.queue.Remove(id)
		p.retention.Schedule(id, job.RequestDir())

		snap := job.Snapshot()
		logger.Info("job finished",
			zap.String("job_id", id),
			zap.String("status", string(snap.Status)))
	}
}

// runJob shields the worker loop from a panicking runner; the job is
// failed and the loop moves on.
func (p *Pool) runJob(ctx context.Context, job *jobstore.Job, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("runner panicked",
				zap.String("job_id", job.ID()),
				zap.Any("panic", r))
			job.Fail(fmt.Sprintf("internal error: %v", r))
		}
	}()
	p.runner.Run(ctx, job)
}
