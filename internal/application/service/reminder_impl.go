package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"subtrack/internal/application/dto"
	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"
	"subtrack/internal/domain/reminder"
	"subtrack/internal/domain/repository"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"
)

const (
	DefaultBatchSize   = 10
	DefaultBatchDelay  = 2 * time.Second
	DefaultSendTimeout = 30 * time.Second
)

// ReminderOptions tunes the dispatch of a reminder pass.
type ReminderOptions struct {
	BatchSize   int
	BatchDelay  time.Duration
	SendTimeout time.Duration
	// Location defines the calendar day used as "today".
	Location *time.Location
}

type reminderService struct {
	subRepo  repository.SubscriptionRepository
	logRepo  repository.ReminderLogRepository
	notifier Notifier
	alerter  Alerter
	opts     ReminderOptions
	log      logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReminderService creates a new instance of ReminderService implementation.
func NewReminderService(
	subRepo repository.SubscriptionRepository,
	logRepo repository.ReminderLogRepository,
	notifier Notifier,
	alerter Alerter,
	opts ReminderOptions,
	log logger.Logger,
) ReminderService {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if alerter == nil {
		alerter = NewLogAlerter(log)
	}
	return &reminderService{
		subRepo:  subRepo,
		logRepo:  logRepo,
		notifier: notifier,
		alerter:  alerter,
		opts:     opts,
		log:      log,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// dispatchItem is one reminder waiting to be sent.
type dispatchItem struct {
	renewal entity.UpcomingRenewal
	class   reminder.Classification
}

// passStats is shared by the dispatches of one pass.
type passStats struct {
	mu    sync.Mutex
	stats dto.RunStatistics
}

func (p *passStats) update(fn func(s *dto.RunStatistics)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.stats)
}

func (p *passStats) snapshot() *dto.RunStatistics {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	return &s
}

// RunReminderPass fetches, classifies, deduplicates and dispatches reminders.
func (s *reminderService) RunReminderPass(ctx context.Context, lookaheadDays int) (*dto.RunStatistics, error) {
	if lookaheadDays < 0 {
		return nil, fmt.Errorf("lookahead must not be negative, got %d days", lookaheadDays)
	}
	today := entity.Today(s.now(), s.opts.Location)
	s.log.Info(fmt.Sprintf("Starting reminder pass for %s with a %d day lookahead", today.Format("2006-01-02"), lookaheadDays))

	candidates, err := s.subRepo.FindUpcoming(ctx, today, lookaheadDays)
	if err != nil {
		s.log.Error("Failed to fetch reminder candidates", err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrCandidateFetch, err)
	}

	stats := &passStats{}
	stats.stats.TotalChecked = len(candidates)

	buckets := make(map[constant.ReminderType][]dispatchItem, len(reminder.Windows))
	for _, candidate := range candidates {
		class := reminder.Classify(candidate.Subscription.RenewalDate, today)
		if class.Overdue() {
			stats.stats.OverdueFound++
			continue
		}
		if !class.Due {
			continue
		}
		buckets[class.Kind] = append(buckets[class.Kind], dispatchItem{renewal: candidate, class: class})
	}

	var queue []dispatchItem
	for _, w := range reminder.Windows {
		for _, item := range buckets[w.Kind] {
			sent, err := s.logRepo.WasSentToday(ctx, item.renewal.Subscription.ID, item.class.Kind)
			if err != nil {
				// The claim taken at dispatch still guards against a duplicate.
				s.log.Warn(fmt.Sprintf("Could not check sent log for subscription %s: %v", item.renewal.Subscription.ID, err))
			}
			if sent {
				stats.stats.DuplicatesSkipped++
				continue
			}
			queue = append(queue, item)
		}
	}

	if err := s.dispatchAll(ctx, queue, today, stats); err != nil {
		result := stats.snapshot()
		s.log.Warn(fmt.Sprintf("Reminder pass interrupted after %d batches: %v", result.Batches, err))
		return result, err
	}

	result := stats.snapshot()
	s.log.Info(fmt.Sprintf("Reminder pass complete: checked=%d sent=%d duplicates=%d failed=%d overdue=%d log_write_failures=%d",
		result.TotalChecked, result.RemindersSent, result.DuplicatesSkipped, result.Failed, result.OverdueFound, result.LogWriteFailures))
	return result, nil
}

// dispatchAll sends the queue in fixed-size batches. Items in a batch run
// concurrently; batches run one after another with a delay in between.
func (s *reminderService) dispatchAll(ctx context.Context, queue []dispatchItem, today time.Time, stats *passStats) error {
	for start := 0; start < len(queue); start += s.opts.BatchSize {
		if start > 0 {
			if err := s.sleep(ctx, s.opts.BatchDelay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+s.opts.BatchSize, len(queue))
		var wg sync.WaitGroup
		for _, item := range queue[start:end] {
			item := item
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.dispatch(ctx, item, today, stats)
			}()
		}
		wg.Wait()
		stats.update(func(st *dto.RunStatistics) { st.Batches++ })
		s.log.Debug(fmt.Sprintf("Dispatched batch of %d reminders", end-start))
	}
	return nil
}

// dispatch claims, sends and records one reminder. In-flight work is detached
// from cancellation of the pass so a started send is always recorded.
func (s *reminderService) dispatch(ctx context.Context, item dispatchItem, today time.Time, stats *passStats) {
	ctx = context.WithoutCancel(ctx)
	sub := item.renewal.Subscription
	kind := item.class.Kind
	key := entity.DedupKey(sub.ID, kind, today)

	won, err := s.logRepo.ClaimDispatch(ctx, key)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to claim %s, not sending", key), err)
		stats.update(func(st *dto.RunStatistics) { st.Failed++ })
		s.recordFailure(ctx, item, err)
		return
	}
	if !won {
		s.log.Debug(fmt.Sprintf("Reminder %s already claimed by another pass", key))
		stats.update(func(st *dto.RunStatistics) { st.DuplicatesSkipped++ })
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	err = s.notifier.Notify(sendCtx, item.renewal.OwnerContact, &sub, item.class.DaysUntilRenewal, kind)
	cancel()
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to send %s reminder for subscription %s to %s",
			kind, sub.ID, logger.RedactEmail(item.renewal.OwnerContact)), err)
		stats.update(func(st *dto.RunStatistics) { st.Failed++ })
		s.recordFailure(ctx, item, err)
		if relErr := s.logRepo.ReleaseClaim(ctx, key); relErr != nil {
			s.log.Warn(fmt.Sprintf("Failed to release claim %s; retry is blocked until tomorrow: %v", key, relErr))
		}
		return
	}

	stats.update(func(st *dto.RunStatistics) { st.RemindersSent++ })
	_, err = s.logRepo.RecordAttempt(ctx, repository.Attempt{
		SubscriptionID:    sub.ID,
		UserID:            sub.UserID,
		Kind:              kind,
		DaysBeforeRenewal: item.class.DaysUntilRenewal,
		RenewalDate:       sub.RenewalDate,
		Status:            constant.StatusSent,
	})
	switch {
	case err == nil:
		s.log.Info(fmt.Sprintf("Sent %s reminder for subscription %s", kind, sub.ID))
	case errors.Is(err, appErrors.ErrDuplicateReminder):
		s.log.Warn(fmt.Sprintf("Reminder %s was sent but another pass had already recorded it", key))
	default:
		// Deduplication relies on this row; today's claim still blocks a resend.
		stats.update(func(st *dto.RunStatistics) { st.LogWriteFailures++ })
		s.log.Error(fmt.Sprintf("Reminder %s was sent but could not be recorded", key), err)
		msg := fmt.Sprintf("Reminder %s was delivered but its sent entry could not be stored (%v). A duplicate may be sent on a later day.", key, err)
		if alertErr := s.alerter.Alert(ctx, msg); alertErr != nil {
			s.log.Error("Failed to deliver operator alert", alertErr)
		}
	}
}

func (s *reminderService) recordFailure(ctx context.Context, item dispatchItem, cause error) {
	sub := item.renewal.Subscription
	_, err := s.logRepo.RecordAttempt(ctx, repository.Attempt{
		SubscriptionID:    sub.ID,
		UserID:            sub.UserID,
		Kind:              item.class.Kind,
		DaysBeforeRenewal: item.class.DaysUntilRenewal,
		RenewalDate:       sub.RenewalDate,
		Status:            constant.StatusFailed,
		ErrorMessage:      cause.Error(),
	})
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to record failed %s reminder for subscription %s", item.class.Kind, sub.ID), err)
	}
}

// CheckOverdue counts overdue subscriptions.
// TODO: send overdue notices once their content and cadence are agreed; until
// then this only reports the count.
func (s *reminderService) CheckOverdue(ctx context.Context) (int, error) {
	today := entity.Today(s.now(), s.opts.Location)
	renewals, err := s.subRepo.FindOverdue(ctx, today)
	if err != nil {
		s.log.Error("Failed to fetch overdue subscriptions", err)
		return 0, fmt.Errorf("%w: %v", appErrors.ErrCandidateFetch, err)
	}

	overdue := 0
	for _, r := range renewals {
		if reminder.Classify(r.Subscription.RenewalDate, today).Overdue() {
			overdue++
		}
	}
	s.log.Info(fmt.Sprintf("Overdue check complete: %d subscriptions past their renewal date", overdue))
	return overdue, nil
}

// CleanupOldLogs purges old log entries and reports delivery stats for the
// window that remains.
func (s *reminderService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	removed, err := s.logRepo.PurgeOlderThan(ctx, retentionDays)
	if err != nil {
		s.log.Error("Failed to purge reminder logs", err)
		return 0, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	s.log.Info(fmt.Sprintf("Removed %d reminder log entries older than %d days", removed, retentionDays))

	since := s.now().AddDate(0, 0, -retentionDays)
	stats, err := s.logRepo.DeliveryStats(ctx, since)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Could not compute delivery stats: %v", err))
		return removed, nil
	}
	s.log.Info(fmt.Sprintf("Delivery stats for the last %d days: total=%d sent=%d failed=%d success_rate=%.2f%%",
		retentionDays, stats.Total, stats.Sent, stats.Failed, stats.SuccessRate))
	return removed, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
