package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/andinanews/pipeline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_RegisterStartComplete(t *testing.T) {
	tr := NewTracker(time.Hour)

	tr.Register("job-1", "req-1")
	job, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, domain.JobPending, job.Status)

	require.NoError(t, tr.Start("job-1"))
	job, _ = tr.Get("job-1")
	assert.Equal(t, domain.JobRunning, job.Status)

	result := &domain.Result{RequestID: "req-1"}
	require.NoError(t, tr.Complete("job-1", result))
	job, _ = tr.Get("job-1")
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, result, job.Result)
}

func TestTracker_FailTransition(t *testing.T) {
	tr := NewTracker(time.Hour)
	tr.Register("job-1", "req-1")
	require.NoError(t, tr.Start("job-1"))

	require.NoError(t, tr.Fail("job-1", errors.New("boom")))
	job, _ := tr.Get("job-1")
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
}

func TestTracker_RejectsOutOfOrderTransition(t *testing.T) {
	tr := NewTracker(time.Hour)
	tr.Register("job-1", "req-1")

	err := tr.Complete("job-1", &domain.Result{})
	require.Error(t, err)

	job, _ := tr.Get("job-1")
	assert.Equal(t, domain.JobPending, job.Status)
}

func TestTracker_UnknownJob(t *testing.T) {
	tr := NewTracker(time.Hour)
	require.Error(t, tr.Start("nope"))
	_, ok := tr.Get("nope")
	assert.False(t, ok)
}

func TestTracker_SweepEvictsOldTerminalJobs(t *testing.T) {
	tr := NewTracker(time.Minute)
	defer func() { nowFunc = time.Now }()

	base := time.Now()
	nowFunc = func() time.Time { return base }

	tr.Register("job-1", "req-1")
	require.NoError(t, tr.Start("job-1"))
	require.NoError(t, tr.Complete("job-1", &domain.Result{}))

	nowFunc = func() time.Time { return base.Add(2 * time.Minute) }
	evicted := tr.Sweep()

	assert.Equal(t, 1, evicted)
	_, ok := tr.Get("job-1")
	assert.False(t, ok)
}

func TestTracker_SweepKeepsPendingAndRunningJobs(t *testing.T) {
	tr := NewTracker(time.Minute)
	defer func() { nowFunc = time.Now }()

	base := time.Now()
	nowFunc = func() time.Time { return base }
	tr.Register("job-1", "req-1")

	nowFunc = func() time.Time { return base.Add(2 * time.Minute) }
	evicted := tr.Sweep()

	assert.Equal(t, 0, evicted)
	_, ok := tr.Get("job-1")
	assert.True(t, ok)
}

func TestTracker_Count(t *testing.T) {
	tr := NewTracker(time.Hour)
	assert.Equal(t, 0, tr.Count())
	tr.Register("job-1", "req-1")
	tr.Register("job-2", "req-2")
	assert.Equal(t, 2, tr.Count())
}
