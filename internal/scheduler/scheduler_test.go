package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	err      error
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Execute(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRegisterJob(t *testing.T) {
	s := New()

	require.NoError(t, s.RegisterJob(&countingJob{name: "sweep", schedule: "@every 5m"}))
	require.NoError(t, s.RegisterJob(&countingJob{name: "manual"}))
	assert.Error(t, s.RegisterJob(&countingJob{name: "broken", schedule: "whenever"}))
	assert.Len(t, s.cron.Entries(), 1, "only the valid scheduled job reaches the cron")
}

func TestFailingJobDoesNotStopScheduler(t *testing.T) {
	s := New()
	failing := &countingJob{name: "failing", schedule: "@every 1h", err: errors.New("store offline")}
	require.NoError(t, s.RegisterJob(failing))

	s.Start()
	assert.Eventually(t, func() bool { return failing.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestStartRunsScheduledJobsOnce(t *testing.T) {
	s := New()
	scheduled := &countingJob{name: "sweep", schedule: "@every 1h"}
	manual := &countingJob{name: "manual"}
	require.NoError(t, s.RegisterJob(scheduled))
	require.NoError(t, s.RegisterJob(manual))

	s.Start()
	assert.Eventually(t, func() bool { return scheduled.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()

	assert.EqualValues(t, 1, scheduled.runs.Load())
	assert.Zero(t, manual.runs.Load(), "on-demand jobs only run when asked")
}
