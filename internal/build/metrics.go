package build

import (
	"sync"
	"time"
)

// BuildMetrics tracks build runs across a watch session
type BuildMetrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	// WarnedBuilds counts successful builds with at least one best-effort failure
	WarnedBuilds    int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	LastError       string
	mutex           sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordBuild records one run. outcome is nil when the run failed.
func (bm *BuildMetrics) RecordBuild(outcome *BuildOutcome, duration time.Duration, err error) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds++
	bm.TotalDuration += duration

	if err != nil {
		bm.FailedBuilds++
		bm.LastError = err.Error()
	} else {
		bm.SuccessfulBuilds++
		if outcome != nil && len(outcome.Warnings) > 0 {
			bm.WarnedBuilds++
		}
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalBuilds)
}

// GetSnapshot returns a snapshot of current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	return BuildMetrics{
		TotalBuilds:      bm.TotalBuilds,
		SuccessfulBuilds: bm.SuccessfulBuilds,
		FailedBuilds:     bm.FailedBuilds,
		WarnedBuilds:     bm.WarnedBuilds,
		AverageDuration:  bm.AverageDuration,
		TotalDuration:    bm.TotalDuration,
		LastError:        bm.LastError,
	}
}

// Reset resets all metrics
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds = 0
	bm.SuccessfulBuilds = 0
	bm.FailedBuilds = 0
	bm.WarnedBuilds = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
	bm.LastError = ""
}

// GetSuccessRate returns the success rate as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalBuilds == 0 {
		return 0.0
	}

	return float64(bm.SuccessfulBuilds) / float64(bm.TotalBuilds) * 100.0
}
