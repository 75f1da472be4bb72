// Package maintenance runs the cron-driven retention sweeps: collab
// history pruning, read-notification retention and activity log
// retention.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/logger"
)

const (
	defaultNotificationRetentionDays = 90
	defaultActivityRetentionDays     = 180
	defaultHistoryIdleTTL            = 24 * time.Hour

	defaultPruneSpec        = "@hourly"
	defaultNotificationSpec = "@daily"
	defaultActivitySpec     = "@daily"
)

// Cleaner coordinates background maintenance: pruning idle collab
// history keys and enforcing notification/activity retention. Any nil
// dependency simply skips the corresponding sweep.
type Cleaner struct {
	hub           *collab.Hub
	notifications *services.NotificationService
	activities    *services.ActivityService
	cron          *cron.Cron
	log           *zap.Logger

	historyIdleTTL        time.Duration
	notificationRetention time.Duration
	activityRetention     time.Duration

	pruneSchedule        string
	notificationSchedule string
	activitySchedule     string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithHistoryIdleTTL adjusts how long an idle history key survives.
func WithHistoryIdleTTL(ttl time.Duration) Option {
	return func(cleaner *Cleaner) {
		if ttl > 0 {
			cleaner.historyIdleTTL = ttl
		}
	}
}

// WithNotificationRetentionDays adjusts read-notification retention.
func WithNotificationRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.notificationRetention = time.Duration(days) * 24 * time.Hour
		}
	}
}

// WithActivityRetentionDays adjusts audit trail retention.
func WithActivityRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.activityRetention = time.Duration(days) * 24 * time.Hour
		}
	}
}

// WithPruneSchedule overrides the cron spec for history pruning.
func WithPruneSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.pruneSchedule = spec
		}
	}
}

// WithNotificationSchedule overrides the cron spec for notification retention.
func WithNotificationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.notificationSchedule = spec
		}
	}
}

// WithActivitySchedule overrides the cron spec for activity retention.
func WithActivitySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.activitySchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(hub *collab.Hub, notifications *services.NotificationService, activities *services.ActivityService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		hub:                   hub,
		notifications:         notifications,
		activities:            activities,
		log:                   logger.WithModule("maintenance"),
		historyIdleTTL:        defaultHistoryIdleTTL,
		notificationRetention: defaultNotificationRetentionDays * 24 * time.Hour,
		activityRetention:     defaultActivityRetentionDays * 24 * time.Hour,
		pruneSchedule:         defaultPruneSpec,
		notificationSchedule:  defaultNotificationSpec,
		activitySchedule:      defaultActivitySpec,
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the sweeps with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.hub != nil {
		if _, err := c.cron.AddFunc(c.pruneSchedule, func() {
			pruned := c.hub.PruneIdle(c.historyIdleTTL)
			if pruned > 0 {
				c.log.Info("pruned idle history keys", zap.Int("count", pruned))
			}
		}); err != nil {
			return err
		}
	}

	if c.notifications != nil {
		if _, err := c.cron.AddFunc(c.notificationSchedule, func() {
			if _, err := c.notifications.PurgeReadOlderThan(context.Background(), c.notificationRetention); err != nil {
				c.log.Warn("notification retention sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.activities != nil {
		if _, err := c.cron.AddFunc(c.activitySchedule, func() {
			if _, err := c.activities.PurgeOlderThan(context.Background(), c.activityRetention); err != nil {
				c.log.Warn("activity retention sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured sweep sequentially. Used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.hub != nil {
		c.hub.PruneIdle(c.historyIdleTTL)
	}
	if c.notifications != nil {
		if _, err := c.notifications.PurgeReadOlderThan(ctx, c.notificationRetention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.activities != nil {
		if _, err := c.activities.PurgeOlderThan(ctx, c.activityRetention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
