package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

// ErrQueueFull is returned by EnqueueJob when the buffer has no room.
var ErrQueueFull = errors.New("job queue is full")

// ErrPoolStopped is returned by EnqueueJob after Stop.
var ErrPoolStopped = errors.New("worker pool stopped")

// Runner executes one analysis.
type Runner interface {
	Analyze(ctx context.Context, upload *types.AudioUpload) (*types.AnalysisResult, error)
}

// WorkerPool manages a pool of workers processing analysis jobs
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	runner      Runner
	logger      *zap.Logger

	mu      sync.RWMutex
	jobs    map[string]*Job
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, runner Runner, log *zap.Logger) *WorkerPool {
	if queueSize <= 0 {
		queueSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobQueue:    make(chan *Job, queueSize),
		workerCount: workerCount,
		runner:      runner,
		logger:      log,
		jobs:        make(map[string]*Job),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start initializes all workers
func (wp *WorkerPool) Start() {
	wp.logger.Info("starting worker pool", zap.Int("workers", wp.workerCount))
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop rejects new jobs and waits for the workers to finish everything
// already queued.
func (wp *WorkerPool) Stop() {
	_ = wp.Shutdown(context.Background())
}

// Shutdown rejects new jobs and lets the workers drain the queue. If ctx
// ends first, the running and remaining jobs see their context cancelled
// and ctx.Err() is returned once the workers exit.
func (wp *WorkerPool) Shutdown(ctx context.Context) error {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return nil
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		wp.logger.Warn("drain deadline reached, cancelling remaining jobs")
		err = ctx.Err()
		wp.cancel()
		<-done
	}
	wp.cancel()
	wp.logger.Info("worker pool stopped")
	return err
}

// EnqueueJob adds a job to the queue
func (wp *WorkerPool) EnqueueJob(job *Job) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	job.Status = types.StatusQueued
	select {
	case wp.jobQueue <- job:
	default:
		return ErrQueueFull
	}
	wp.jobs[job.ID] = job

	wp.logger.Info("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("source", job.SourceType),
		zap.String("filename", job.Filename))
	return nil
}

// GetJob returns a snapshot of the job with id.
func (wp *WorkerPool) GetJob(id string) (Job, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	job, ok := wp.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// EvictFinished drops completed and failed jobs that finished before cutoff
// and returns how many were removed.
func (wp *WorkerPool) EvictFinished(cutoff time.Time) int {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	var n int
	for id, job := range wp.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(wp.jobs, id)
			n++
		}
	}
	if n > 0 {
		wp.logger.Info("evicted finished jobs", zap.Int("count", n))
	}
	return n
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.logger.Error("panic processing job",
						zap.Int("worker", id),
						zap.String("job_id", job.ID),
						zap.Any("panic", r),
						zap.String("stack", string(debug.Stack())))
					wp.finish(job, nil, fmt.Errorf("worker panic: %v", r))
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

func (wp *WorkerPool) processJob(workerID int, job *Job) {
	wp.setStatus(job, types.StatusProcessing)
	wp.logger.Info("processing job", zap.Int("worker", workerID), zap.String("job_id", job.ID))

	result, err := wp.runner.Analyze(wp.ctx, job.upload)
	wp.finish(job, result, err)
}

func (wp *WorkerPool) setStatus(job *Job, status string) {
	wp.mu.Lock()
	job.Status = status
	wp.mu.Unlock()
}

func (wp *WorkerPool) finish(job *Job, result *types.AnalysisResult, err error) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	now := time.Now()
	job.CompletedAt = &now
	job.upload = nil
	if err != nil {
		job.Status = types.StatusFailed
		job.Error = err.Error()
		return
	}
	job.Status = types.StatusCompleted
	job.Result = result
}
