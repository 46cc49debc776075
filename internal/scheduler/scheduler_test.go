package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := newTestScheduler(t)
	err := s.AddJob("bad", "Bad", "", "every day", func(context.Context) error { return nil }, false)
	assert.Error(t, err)
	assert.Empty(t, s.GetJobs())
}

func TestRunJobNow_RecordsOutcome(t *testing.T) {
	s := newTestScheduler(t)

	done := make(chan struct{}, 2)
	calls := 0
	require.NoError(t, s.AddSingletonJob("sweep", "Sweep", "clears things", "0 0 1 1 *", func(context.Context) error {
		calls++
		defer func() { done <- struct{}{} }()
		if calls == 2 {
			return errors.New("boom")
		}
		return nil
	}, false))
	s.Start()

	require.NoError(t, s.RunJobNow("sweep"))
	waitFor(t, done)
	assert.Eventually(t, func() bool {
		job, _ := s.GetJob("sweep")
		return job.Status == JobStatusCompleted
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.RunJobNow("sweep"))
	waitFor(t, done)
	assert.Eventually(t, func() bool {
		job, _ := s.GetJob("sweep")
		return job.Status == JobStatusFailed && job.LastError == "boom"
	}, time.Second, 10*time.Millisecond)

	job, ok := s.GetJob("sweep")
	require.True(t, ok)
	assert.Equal(t, 2, job.RunCount)
	assert.Equal(t, 1, job.ErrorCount)
	assert.True(t, job.Singleton)
	assert.False(t, job.NextRun.IsZero())
}

func TestRunJobNow_Unknown(t *testing.T) {
	s := newTestScheduler(t)
	assert.ErrorIs(t, s.RunJobNow("nope"), ErrJobNotFound)
	assert.ErrorIs(t, s.SetEnabled("nope", false), ErrJobNotFound)
}

func TestDisabledJobSkipsRun(t *testing.T) {
	s := newTestScheduler(t)
	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("backup", "Backup", "", "0 3 * * *", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}, false))
	require.NoError(t, s.SetEnabled("backup", false))
	s.Start()

	require.NoError(t, s.RunJobNow("backup"))
	select {
	case <-ran:
		t.Fatal("disabled job ran")
	case <-time.After(200 * time.Millisecond):
	}

	jobs := s.GetJobs()
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].Enabled)
	assert.Zero(t, jobs[0].RunCount)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestCronLocation(t *testing.T) {
	tests := []struct {
		name   string
		loc    *time.Location
		offset int
	}{
		{name: "utc", loc: time.UTC, offset: 0},
		{name: "fixed plus four", loc: time.FixedZone("UTC+4", 4*60*60), offset: 4 * 60 * 60},
		{name: "fixed minus five", loc: time.FixedZone("UTC-5", -5*60*60), offset: -5 * 60 * 60},
		{name: "fixed zero", loc: time.FixedZone("UTC+0", 0), offset: 0},
		{name: "half hour falls back to utc", loc: time.FixedZone("UTC+5:30", 5*60*60+30*60), offset: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cronLocation(tt.loc)
			_, err := time.LoadLocation(got.String())
			require.NoError(t, err)
			_, offset := time.Now().In(got).Zone()
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestNew_FixedZoneAcceptsCronJobs(t *testing.T) {
	s, err := New(time.FixedZone("UTC+4", 4*60*60))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.AddJob("nightly", "Nightly", "", "0 3 * * *", func(context.Context) error { return nil }, false))
	job, ok := s.GetJob("nightly")
	require.True(t, ok)
	assert.Equal(t, "0 3 * * *", job.Schedule)
}
