// Package loop schedules batches: hourly (or cron-driven) reruns after
// success, short-delay retries after unclassified failures, and a hard
// stop on config-fatal conditions or operator interrupt.
package loop

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"dailysign/internal/config"
	"dailysign/internal/domain"
)

const (
	// DefaultLongInterval is the wait between successful batches in
	// continuous mode when no cron schedule is configured.
	DefaultLongInterval = time.Hour
	// DefaultShortInterval is the retry delay after an unclassified
	// batch failure.
	DefaultShortInterval = 10 * time.Second
)

// BatchFunc runs one batch. It is the loop's only collaborator.
type BatchFunc func(ctx context.Context) (domain.BatchResult, error)

type Loop struct {
	batch      BatchFunc
	continuous bool
	schedule   cron.Schedule
	long       time.Duration
	short      time.Duration
}

type Option func(*Loop)

// WithContinuous keeps the loop running after a successful batch
// instead of exiting after a single shot.
func WithContinuous(on bool) Option {
	return func(l *Loop) { l.continuous = on }
}

// WithSchedule replaces the fixed long interval with a cron schedule.
func WithSchedule(s cron.Schedule) Option {
	return func(l *Loop) { l.schedule = s }
}

// WithIntervals overrides the wait durations. Zero values keep the
// defaults.
func WithIntervals(long, short time.Duration) Option {
	return func(l *Loop) {
		if long > 0 {
			l.long = long
		}
		if short > 0 {
			l.short = short
		}
	}
}

func New(batch BatchFunc, opts ...Option) *Loop {
	l := &Loop{
		batch: batch,
		long:  DefaultLongInterval,
		short: DefaultShortInterval,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// ParseSchedule validates a standard 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return cron.ParseStandard(expr)
}

// Run executes batches until a terminal state is reached:
//
//   - single-shot completion or, in continuous mode, only an interrupt
//   - a config-fatal condition (missing/malformed/empty config)
//   - operator interrupt, observable mid-batch and mid-wait
//
// Unclassified batch failures are retried after the short interval,
// indefinitely. That is deliberate: such failures are assumed to be
// transient (network blips), and the only alternative exits are a
// config fault or the operator.
func (l *Loop) Run(ctx context.Context) domain.RunOutcome {
	attempt := 0
	for {
		if ctx.Err() != nil {
			log.Warn().Msg("interrupted by operator")
			return domain.RunInterrupted
		}

		_, err := l.batch(ctx)
		switch {
		case err == nil:
			attempt = 0
			if !l.continuous {
				return domain.RunCompleted
			}
			wait := l.nextWait(time.Now())
			log.Info().Dur("wait", wait).Msg("batch complete, waiting for next scheduled run")
			if !l.sleep(ctx, wait) {
				log.Warn().Msg("interrupted by operator")
				return domain.RunInterrupted
			}

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Warn().Msg("interrupted by operator")
			return domain.RunInterrupted

		case config.IsFatal(err):
			log.Error().Err(err).Msg("stopping: configuration requires operator action")
			return domain.RunConfigFatal

		default:
			attempt++
			log.Error().Err(err).Int("attempt", attempt).Dur("retry_in", l.short).Msg("batch failed, retrying")
			if !l.sleep(ctx, l.short) {
				log.Warn().Msg("interrupted by operator")
				return domain.RunInterrupted
			}
		}
	}
}

// nextWait computes the long wait: the next cron fire when a schedule
// is configured, the fixed interval otherwise.
func (l *Loop) nextWait(now time.Time) time.Duration {
	if l.schedule != nil {
		if d := l.schedule.Next(now).Sub(now); d > 0 {
			return d
		}
	}
	return l.long
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
// Returns false when cancelled.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
