package cleanup

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler removes stale files from the temp directory. Requests delete
// their own audio; this catches whatever a crashed process left behind.
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
	sweeps   []func(cutoff time.Time)
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempDir string, intervalMinutes, maxAgeHours int, log *zap.Logger) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// OnSweep registers fn to run after every temp-file cleanup with the same
// age cutoff. Call it before Start.
func (s *Scheduler) OnSweep(fn func(cutoff time.Time)) {
	s.sweeps = append(s.sweeps, fn)
}

// Start runs one cleanup immediately, then one per interval until Stop.
func (s *Scheduler) Start() {
	s.sweep(time.Now())

	if s.interval <= 0 {
		s.logger.Info("periodic temp cleanup disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				s.sweep(now)
			case <-s.stopChan:
				return
			}
		}
	}()

	s.logger.Info("cleanup scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("max_age", s.maxAge))
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.logger.Info("cleanup scheduler stopped")
	})
}

func (s *Scheduler) sweep(now time.Time) {
	s.CleanOldFiles(now)
	cutoff := now.Add(-s.maxAge)
	for _, fn := range s.sweeps {
		fn(cutoff)
	}
}

// CleanOldFiles removes files older than maxAge (relative to now) and
// returns how many were deleted.
func (s *Scheduler) CleanOldFiles(now time.Time) int {
	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			return nil
		}

		size := info.Size()
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to delete old file", zap.String("path", path), zap.Error(err))
			return nil
		}
		deletedCount++
		deletedSize += size
		s.logger.Debug("deleted old temp file",
			zap.String("file", filepath.Base(path)),
			zap.Duration("age", age.Round(time.Second)))
		return nil
	})
	if err != nil {
		s.logger.Warn("error during cleanup", zap.Error(err))
	}

	if deletedCount > 0 {
		s.logger.Info("cleanup complete",
			zap.Int("files", deletedCount),
			zap.Float64("freed_mb", float64(deletedSize)/(1024*1024)))
	}
	return deletedCount
}

// EnsureTempDirExists creates the temp directory if it doesn't exist
func EnsureTempDirExists(tempDir string) error {
	return os.MkdirAll(tempDir, 0755)
}
