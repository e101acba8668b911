package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/accesskeep/accesskeep/internal/services"
	"github.com/accesskeep/accesskeep/pkg/logger"
)

const (
	defaultSeenRetentionDays = 90
	defaultSweepSpec         = "@daily"
)

// Cleaner coordinates background maintenance tasks: removing broadcasts whose
// window has closed and pruning seen notifications past the retention cutoff.
// Sweeps are housekeeping only; visibility rules already exclude their targets.
type Cleaner struct {
	globals       *services.GlobalNotificationService
	notifications *services.NotificationService
	cron          *cron.Cron
	now           func() time.Time
	log           *zap.Logger
	enabled       bool
	retentionDays int
	schedule      string
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

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSeenRetentionDays adjusts how long seen notifications are retained.
func WithSeenRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retentionDays = days
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding sweep being skipped.
func NewCleaner(globals *services.GlobalNotificationService, notifications *services.NotificationService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		globals:       globals,
		notifications: notifications,
		now:           time.Now,
		retentionDays: defaultSeenRetentionDays,
		schedule:      defaultSweepSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.globals != nil || cleaner.notifications != nil

	return cleaner
}

// Start registers the sweep with the cron scheduler and launches it if at
// least one sweep is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured sweeps sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	now := c.now()

	if c.globals != nil {
		removed, err := c.globals.DeleteExpiredBefore(ctx, now)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("removed expired broadcasts", zap.Int64("count", removed))
		}
	}

	if c.notifications != nil && c.retentionDays > 0 {
		cutoff := now.AddDate(0, 0, -c.retentionDays)
		removed, err := c.notifications.DeleteSeenBefore(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("removed aged seen notifications", zap.Int64("count", removed))
		}
	}

	return errs
}
