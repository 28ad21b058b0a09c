package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"subtrack/internal/application/dto"
	"subtrack/internal/infrastructure/scheduler"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminderService struct {
	mu        sync.Mutex
	passes    []int
	overdue   int
	cleanups  []int
	passErr   error
	deadlines []time.Time
}

func (f *fakeReminderService) RunReminderPass(ctx context.Context, lookaheadDays int) (*dto.RunStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passes = append(f.passes, lookaheadDays)
	if d, ok := ctx.Deadline(); ok {
		f.deadlines = append(f.deadlines, d)
	}
	return &dto.RunStatistics{}, f.passErr
}

func (f *fakeReminderService) CheckOverdue(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overdue++
	return 0, nil
}

func (f *fakeReminderService) CleanupOldLogs(_ context.Context, days int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, days)
	return 0, nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	unlocked []string
}

func (f *fakeLocker) TryLock(_ context.Context, name string, _ time.Duration) (func(context.Context) error, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held[name] {
		return nil, false, nil
	}
	f.held[name] = true
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, name)
		f.unlocked = append(f.unlocked, name)
		return nil
	}, true, nil
}

func testScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		ReminderSpec:  "0 0 9 * * *",
		OverdueSpec:   "0 0 10 * * *",
		CleanupSpec:   "0 0 2 * * 0",
		LookaheadDays: 30,
		RetentionDays: 90,
		PassTimeout:   time.Minute,
	}
}

func TestSchedulerService_StartRegistersJobs(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	cronScheduler := scheduler.NewScheduler(ny, logger.Discard())
	svc := NewSchedulerService(cronScheduler, &fakeReminderService{}, nil, testScheduleConfig(), logger.Discard())

	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	next := svc.NextRuns()
	require.Len(t, next, 3)
	assert.Equal(t, 9, next[JobReminderPass].In(ny).Hour())
	assert.Equal(t, 10, next[JobOverdueCheck].In(ny).Hour())
	assert.Equal(t, time.Sunday, next[JobLogCleanup].In(ny).Weekday())

	err = svc.Start(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrScheduling))
}

func TestSchedulerService_InvalidSpecRegistersNothing(t *testing.T) {
	cronScheduler := scheduler.NewScheduler(time.UTC, logger.Discard())
	cfg := testScheduleConfig()
	cfg.CleanupSpec = "every sunday"
	svc := NewSchedulerService(cronScheduler, &fakeReminderService{}, nil, cfg, logger.Discard())

	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrScheduling))
	assert.Empty(t, cronScheduler.GetEntries())
	assert.Empty(t, svc.NextRuns())
}

func TestSchedulerService_JobsRunWithTimeoutAndParameters(t *testing.T) {
	reminders := &fakeReminderService{}
	svc := NewSchedulerService(scheduler.NewScheduler(time.UTC, logger.Discard()), reminders, nil, testScheduleConfig(), logger.Discard()).(*schedulerService)
	svc.ctx = context.Background()

	svc.wrap(JobReminderPass, svc.runReminderPass)()
	svc.wrap(JobOverdueCheck, svc.runOverdueCheck)()
	svc.wrap(JobLogCleanup, svc.runLogCleanup)()

	assert.Equal(t, []int{30}, reminders.passes)
	assert.Equal(t, 1, reminders.overdue)
	assert.Equal(t, []int{90}, reminders.cleanups)
	require.Len(t, reminders.deadlines, 1)
	assert.WithinDuration(t, time.Now().Add(time.Minute), reminders.deadlines[0], 5*time.Second)
}

func TestSchedulerService_SkipsJobHeldElsewhere(t *testing.T) {
	reminders := &fakeReminderService{}
	locker := &fakeLocker{held: map[string]bool{"subtrack:job:" + JobReminderPass: true}}
	svc := NewSchedulerService(scheduler.NewScheduler(time.UTC, logger.Discard()), reminders, locker, testScheduleConfig(), logger.Discard()).(*schedulerService)
	svc.ctx = context.Background()

	svc.wrap(JobReminderPass, svc.runReminderPass)()
	assert.Empty(t, reminders.passes)

	svc.wrap(JobOverdueCheck, svc.runOverdueCheck)()
	assert.Equal(t, 1, reminders.overdue)
	assert.Equal(t, []string{"subtrack:job:" + JobOverdueCheck}, locker.unlocked)
}

func TestSchedulerService_RunsUnlockedWhenLockerFails(t *testing.T) {
	reminders := &fakeReminderService{passErr: errors.New("boom")}
	locker := &fakeLocker{err: errors.New("redis: connection refused")}
	svc := NewSchedulerService(scheduler.NewScheduler(time.UTC, logger.Discard()), reminders, locker, testScheduleConfig(), logger.Discard()).(*schedulerService)
	svc.ctx = context.Background()

	svc.wrap(JobReminderPass, svc.runReminderPass)()
	assert.Equal(t, []int{30}, reminders.passes)
}
