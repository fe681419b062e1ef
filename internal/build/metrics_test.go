package build

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildMetrics(t *testing.T) {
	bm := NewBuildMetrics()
	assert.Equal(t, 0.0, bm.GetSuccessRate())

	bm.RecordBuild(&BuildOutcome{}, 2*time.Second, nil)
	bm.RecordBuild(&BuildOutcome{Warnings: []error{fmt.Errorf("fmt")}}, 4*time.Second, nil)
	bm.RecordBuild(nil, 3*time.Second, fmt.Errorf("compile failed"))
	bm.RecordBuild(&BuildOutcome{}, 3*time.Second, nil)

	snap := bm.GetSnapshot()
	assert.Equal(t, int64(4), snap.TotalBuilds)
	assert.Equal(t, int64(3), snap.SuccessfulBuilds)
	assert.Equal(t, int64(1), snap.FailedBuilds)
	assert.Equal(t, int64(1), snap.WarnedBuilds)
	assert.Equal(t, 12*time.Second, snap.TotalDuration)
	assert.Equal(t, 3*time.Second, snap.AverageDuration)
	assert.Equal(t, "compile failed", snap.LastError)
	assert.Equal(t, 75.0, bm.GetSuccessRate())

	bm.Reset()
	assert.Equal(t, int64(0), bm.GetSnapshot().TotalBuilds)
	assert.Empty(t, bm.GetSnapshot().LastError)
}
