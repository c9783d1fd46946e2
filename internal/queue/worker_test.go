package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	err     error
	panics  bool
	release chan struct{}
}

func (f *fakeRunner) Analyze(_ context.Context, upload *types.AudioUpload) (*types.AnalysisResult, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.calls = append(f.calls, upload.ID)
	f.mu.Unlock()

	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.AnalysisResult{ID: upload.ID, Summary: "done"}, nil
}

func waitForStatus(t *testing.T, wp *WorkerPool, id string, statuses ...string) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = wp.GetJob(id)
		if !ok {
			return false
		}
		for _, s := range statuses {
			if job.Status == s {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func newUpload(id string) *types.AudioUpload {
	return &types.AudioUpload{ID: id, Filename: "call.wav", Source: types.SourceStream, Data: []byte("x")}
}

func TestWorkerPoolCompletesJob(t *testing.T) {
	runner := &fakeRunner{}
	wp := NewWorkerPool(2, 10, runner, zap.NewNop())
	wp.Start()
	defer wp.Stop()

	job := NewJob(newUpload("job-1"))
	require.NoError(t, wp.EnqueueJob(job))

	done := waitForStatus(t, wp, "job-1", types.StatusCompleted)
	require.NotNil(t, done.Result)
	assert.Equal(t, "done", done.Result.Summary)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, types.SourceStream, done.SourceType)
}

func TestWorkerPoolRecordsFailure(t *testing.T) {
	wp := NewWorkerPool(1, 10, &fakeRunner{err: errors.New("whisper missing")}, zap.NewNop())
	wp.Start()
	defer wp.Stop()

	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("job-2"))))

	failed := waitForStatus(t, wp, "job-2", types.StatusFailed)
	assert.Equal(t, "whisper missing", failed.Error)
	assert.Nil(t, failed.Result)
}

func TestWorkerPoolRecoversPanic(t *testing.T) {
	wp := NewWorkerPool(1, 10, &fakeRunner{panics: true}, zap.NewNop())
	wp.Start()
	defer wp.Stop()

	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("job-3"))))
	failed := waitForStatus(t, wp, "job-3", types.StatusFailed)
	assert.Contains(t, failed.Error, "boom")

	// the worker survives the panic
	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("job-4"))))
	waitForStatus(t, wp, "job-4", types.StatusFailed)
}

func TestWorkerPoolQueueFull(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	wp := NewWorkerPool(1, 1, runner, zap.NewNop())
	wp.Start()
	defer func() {
		close(runner.release)
		wp.Stop()
	}()

	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("a"))))
	waitForStatus(t, wp, "a", types.StatusProcessing)
	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("b"))))

	err := wp.EnqueueJob(NewJob(newUpload("c")))
	assert.ErrorIs(t, err, ErrQueueFull)
	_, ok := wp.GetJob("c")
	assert.False(t, ok)
}

func TestWorkerPoolStopRejectsJobs(t *testing.T) {
	wp := NewWorkerPool(1, 1, &fakeRunner{}, zap.NewNop())
	wp.Start()
	wp.Stop()
	wp.Stop()

	assert.ErrorIs(t, wp.EnqueueJob(NewJob(newUpload("late"))), ErrPoolStopped)
}

func TestNewJobAssignsID(t *testing.T) {
	up := &types.AudioUpload{Filename: "call.mp3", Source: types.SourceGDrive}
	job := NewJob(up)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, job.ID, up.ID)
	assert.Equal(t, types.StatusQueued, job.Status)
}

func TestGetJobUnknown(t *testing.T) {
	wp := NewWorkerPool(1, 1, &fakeRunner{}, zap.NewNop())
	_, ok := wp.GetJob("nope")
	assert.False(t, ok)
}

type ctxRunner struct {
	delay time.Duration
}

func (r ctxRunner) Analyze(ctx context.Context, upload *types.AudioUpload) (*types.AnalysisResult, error) {
	select {
	case <-time.After(r.delay):
		return &types.AnalysisResult{ID: upload.ID}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestWorkerPoolStopDrainsQueuedJobs(t *testing.T) {
	wp := NewWorkerPool(1, 10, ctxRunner{delay: 20 * time.Millisecond}, zap.NewNop())
	wp.Start()

	ids := []string{"d1", "d2", "d3"}
	for _, id := range ids {
		require.NoError(t, wp.EnqueueJob(NewJob(newUpload(id))))
	}
	wp.Stop()

	for _, id := range ids {
		job, ok := wp.GetJob(id)
		require.True(t, ok)
		assert.Equal(t, types.StatusCompleted, job.Status, id)
		assert.Empty(t, job.Error)
	}
}

func TestWorkerPoolShutdownDeadlineCancelsJobs(t *testing.T) {
	wp := NewWorkerPool(1, 10, ctxRunner{delay: time.Minute}, zap.NewNop())
	wp.Start()

	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("slow"))))
	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("waiting"))))
	waitForStatus(t, wp, "slow", types.StatusProcessing)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, wp.Shutdown(ctx), context.DeadlineExceeded)

	for _, id := range []string{"slow", "waiting"} {
		job, ok := wp.GetJob(id)
		require.True(t, ok)
		assert.Equal(t, types.StatusFailed, job.Status, id)
		assert.Contains(t, job.Error, "context canceled")
	}
}

func TestWorkerPoolEvictFinished(t *testing.T) {
	runner := &fakeRunner{}
	wp := NewWorkerPool(1, 10, runner, zap.NewNop())
	wp.Start()
	defer wp.Stop()

	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("old"))))
	done := waitForStatus(t, wp, "old", types.StatusCompleted)

	assert.Zero(t, wp.EvictFinished(done.CompletedAt.Add(-time.Second)))
	_, ok := wp.GetJob("old")
	assert.True(t, ok)

	assert.Equal(t, 1, wp.EvictFinished(done.CompletedAt.Add(time.Second)))
	_, ok = wp.GetJob("old")
	assert.False(t, ok)
}

func TestWorkerPoolEvictKeepsUnfinishedJobs(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	wp := NewWorkerPool(1, 10, runner, zap.NewNop())
	wp.Start()
	defer func() {
		close(runner.release)
		wp.Stop()
	}()

	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("running"))))
	require.NoError(t, wp.EnqueueJob(NewJob(newUpload("queued"))))
	waitForStatus(t, wp, "running", types.StatusProcessing)

	assert.Zero(t, wp.EvictFinished(time.Now().Add(time.Hour)))
	_, ok := wp.GetJob("running")
	assert.True(t, ok)
	_, ok = wp.GetJob("queued")
	assert.True(t, ok)
}
