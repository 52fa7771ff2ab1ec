package scheduler

import (
	"fmt"
	"testing"

	"github.com/driftline/ballast/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

func (j *stubJob) Name() string { return j.name }

func TestAddJobRejectsInvalidSchedule(t *testing.T) {
	sched := New(logger.New(logger.Config{Level: "error"}))

	err := sched.AddJob("not a cron expression", &stubJob{name: "bad"})
	assert.Error(t, err)
}

func TestAddJobAcceptsSecondsField(t *testing.T) {
	sched := New(logger.New(logger.Config{Level: "error"}))

	assert.NoError(t, sched.AddJob("0 */15 * * * *", &stubJob{name: "evaluation"}))
	assert.NoError(t, sched.AddJob("@every 30s", &stubJob{name: "frequent"}))
}

func TestRunNow(t *testing.T) {
	sched := New(logger.New(logger.Config{Level: "error"}))

	job := &stubJob{name: "evaluation"}
	require.NoError(t, sched.RunNow(job))
	assert.Equal(t, 1, job.runs)

	job.err = fmt.Errorf("boom")
	assert.Error(t, sched.RunNow(job))
	assert.Equal(t, 2, job.runs)
}

func TestStartStop(t *testing.T) {
	sched := New(logger.New(logger.Config{Level: "error"}))

	require.NoError(t, sched.AddJob("@every 1h", &stubJob{name: "noop"}))
	sched.Start()
	sched.Stop()
}
