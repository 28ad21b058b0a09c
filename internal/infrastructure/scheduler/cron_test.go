package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"subtrack/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddAndRemoveJob(t *testing.T) {
	s := NewScheduler(time.UTC, logger.Discard())

	id, err := s.AddJob("0 0 9 * * *", func() {})
	require.NoError(t, err)
	assert.Len(t, s.GetEntries(), 1)
	assert.Equal(t, id, s.Entry(id).ID)

	s.RemoveJob(id)
	assert.Empty(t, s.GetEntries())
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(time.UTC, logger.Discard())

	_, err := s.AddJob("0 9 * *", func() {})
	assert.Error(t, err)
}

func TestScheduler_NextRunUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := NewScheduler(ny, logger.Discard())

	id, err := s.AddJob("0 0 9 * * *", func() {})
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	next := s.Entry(id).Next.In(ny)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestScheduler_RecoversPanickingJob(t *testing.T) {
	s := NewScheduler(time.UTC, logger.Discard())

	var runs atomic.Int32
	_, err := s.AddJob("* * * * * *", func() {
		runs.Add(1)
		panic("boom")
	})
	require.NoError(t, err)
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
	s.Stop()
}
