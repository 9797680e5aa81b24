package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type SessionPurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// Purger hard deletes stale refresh records, one-time tokens and audit rows.
type Purger struct {
	Sessions         SessionPurger
	Tokens           TokenPurger
	Audit            AuditPurger
	RefreshRetention time.Duration
	AuditRetention   time.Duration
	Interval         time.Duration
	Log              *slog.Logger
}

type PurgeResult struct {
	Sessions int64
	Tokens   int64
	Audit    int64
}

func (p *Purger) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// RunOnce runs every configured purge and joins their errors. A failing
// purge does not stop the others.
func (p *Purger) RunOnce(ctx context.Context) (PurgeResult, error) {
	var (
		res  PurgeResult
		errs []error
	)
	if p.Sessions != nil {
		n, err := p.Sessions.PurgeExpired(ctx, p.RefreshRetention)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge sessions: %w", err))
		}
		res.Sessions = n
	}
	if p.Tokens != nil {
		n, err := p.Tokens.PurgeExpired(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge tokens: %w", err))
		}
		res.Tokens = n
	}
	if p.Audit != nil {
		n, err := p.Audit.PurgeOlderThan(ctx, p.AuditRetention)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge audit: %w", err))
		}
		res.Audit = n
	}
	return res, errors.Join(errs...)
}

// Run purges immediately and then on every tick until ctx is done.
func (p *Purger) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	l := p.logger().With("worker", "purge")

	tick := func() {
		res, err := p.RunOnce(ctx)
		if err != nil {
			l.Error("purge_failed", "error", err)
		}
		l.Info("purge_done", "sessions", res.Sessions, "tokens", res.Tokens, "audit", res.Audit)
	}

	tick()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Info("purge_stopped")
			return
		case <-t.C:
			tick()
		}
	}
}
