package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCronJobAndRunNow(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	err = s.AddCronJob("announce_random_loop", "Announce Random Loop", "0 */6 * * *", func(_ context.Context) error {
		ran <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop() //nolint:errcheck

	require.NoError(t, s.RunJobNow("announce_random_loop"))
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	jobs := s.GetJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "announce_random_loop", jobs["announce_random_loop"].ID)
}

func TestRunJobNowUnknownJob(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	assert.Error(t, s.RunJobNow("nope"))
}

func TestAddCronJobRejectsBadSchedule(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	assert.Error(t, s.AddCronJob("bad", "Bad", "not a cron expression", func(_ context.Context) error { return nil }))
}
