package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradelens/backend/pkg/logger"
)

type funcJob struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Schedule() string              { return j.schedule }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

func TestAddJob(t *testing.T) {
	s := New(logger.NewNop())

	job := funcJob{name: "noop", schedule: "0 * * * * *", run: func(context.Context) error { return nil }}
	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate names are rejected")

	bad := funcJob{name: "bad", schedule: "every so often", run: func(context.Context) error { return nil }}
	assert.Error(t, s.AddJob(bad))

	assert.Equal(t, []string{"noop"}, s.GetAllJobs())
}

func TestRunJob_RecordsHistory(t *testing.T) {
	s := New(logger.NewNop())

	calls := 0
	require.NoError(t, s.AddJob(funcJob{
		name:     "flaky",
		schedule: "@every 1h",
		run: func(ctx context.Context) error {
			calls++
			if calls == 2 {
				return errors.New("boom")
			}
			return nil
		},
	}))

	for i := 0; i < 3; i++ {
		_, err := s.RunJob("flaky")
		require.NoError(t, err)
	}

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 3)
	assert.False(t, history.Results[1].Success)
	assert.Equal(t, "boom", history.Results[1].Error)

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 3, stats.TotalRuns)
	assert.Equal(t, 2, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastRun)
	assert.Empty(t, stats.LastError)
}

func TestRunJob_RecoversPanic(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.AddJob(funcJob{
		name:     "panics",
		schedule: "@every 1h",
		run:      func(context.Context) error { panic("nil map") },
	}))

	result, err := s.RunJob("panics")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "nil map")
}

func TestRunJob_Unknown(t *testing.T) {
	s := New(logger.NewNop())

	_, err := s.RunJob("missing")
	assert.Error(t, err)
	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
	assert.Error(t, s.RemoveJob("missing"))
}

func TestRemoveJob(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.AddJob(funcJob{name: "a", schedule: "@every 1h", run: func(context.Context) error { return nil }}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())

	// history survives removal
	_, err := s.GetJobHistory("a")
	assert.NoError(t, err)
}

func TestJobHistory_Limit(t *testing.T) {
	var h JobHistory
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)

	var empty JobHistory
	_, ok := empty.Latest()
	assert.False(t, ok)
	assert.Zero(t, empty.SuccessRate())
}
