package scheduler

import (
	"context"
	"fmt"
	"time"

	"giftcard_tracker_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Dispatcher delivers due reminders and purges old ones.
type Dispatcher interface {
	DispatchDue(ctx context.Context) (app.DispatchStats, error)
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

type ReminderScheduler struct {
	cronEngine       *cron.Cron
	dispatcher       Dispatcher
	logger           *logrus.Entry
	cronSpecDispatch string
	cronSpecCleanup  string
	retention        time.Duration
}

func NewReminderScheduler(
	dispatcher Dispatcher,
	logger *logrus.Entry,
	location *time.Location,
	cronSpecDispatch string, // e.g., "* * * * *" (every minute)
	cronSpecCleanup string, // e.g., "0 3 * * *" (3 AM daily)
	retention time.Duration,
) *ReminderScheduler {
	if location == nil {
		location = time.Local
	}
	return &ReminderScheduler{
		// SkipIfStillRunning keeps a slow dispatch from overlapping the next tick.
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		dispatcher:       dispatcher,
		logger:           logger,
		cronSpecDispatch: cronSpecDispatch,
		cronSpecCleanup:  cronSpecCleanup,
		retention:        retention,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecDispatch, s.runDispatch); err != nil {
		return fmt.Errorf("could not add reminder dispatch cron job: %w", err)
	}

	if _, err := s.cronEngine.AddFunc(s.cronSpecCleanup, s.runCleanup); err != nil {
		return fmt.Errorf("could not add reminder cleanup cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"dispatch_spec": s.cronSpecDispatch,
		"cleanup_spec":  s.cronSpecCleanup,
	}).Info("Reminder scheduler started with jobs.")
	return nil
}

func (s *ReminderScheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute) // Context for the job
	defer cancel()

	stats, err := s.dispatcher.DispatchDue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during reminder dispatch")
		return
	}
	if stats != (app.DispatchStats{}) {
		s.logger.WithFields(logrus.Fields{
			"sent":    stats.Sent,
			"skipped": stats.Skipped,
			"retried": stats.Retried,
			"failed":  stats.Failed,
		}).Info("Reminder dispatch finished")
	}
}

func (s *ReminderScheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute) // Longer timeout for potentially more items
	defer cancel()

	n, err := s.dispatcher.Purge(ctx, s.retention)
	if err != nil {
		s.logger.WithError(err).Error("Error during reminder cleanup")
		return
	}
	s.logger.WithField("purged", n).Info("Finished reminders purged")
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
