// Package cleanup periodically purges expired authorization codes and
// tokens from stores that do not expire records on their own.
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// CodeStore removes expired authorization codes.
type CodeStore interface {
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int, error)
}

// TokenStore removes token records whose every credential has expired.
type TokenStore interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// Observer records how many records a sweep removed.
type Observer interface {
	ObserveCleanup(kind string, removed int)
}

const (
	kindCodes  = "authorization_code"
	kindTokens = "token"
)

type Worker struct {
	codes    CodeStore
	tokens   TokenStore
	interval time.Duration
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(w *Worker) {
		w.observer = observer
	}
}

// WithClock overrides the time source used for each sweep.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

func New(codes CodeStore, tokens TokenStore, interval time.Duration, opts ...Option) *Worker {
	w := &Worker{
		codes:    codes,
		tokens:   tokens,
		interval: interval,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run sweeps on every tick until ctx is done. A non-positive interval
// disables the worker.
func (w *Worker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.logger.InfoContext(ctx, "cleanup worker disabled")
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs a single cleanup pass. Failures are logged and the next tick
// tries again.
func (w *Worker) Sweep(ctx context.Context) {
	now := w.now()

	if removed, err := w.codes.DeleteExpiredCodes(ctx, now); err != nil {
		w.logger.ErrorContext(ctx, "failed to delete expired authorization codes", "error", err)
	} else {
		w.report(ctx, kindCodes, removed)
	}

	if removed, err := w.tokens.DeleteExpiredTokens(ctx, now); err != nil {
		w.logger.ErrorContext(ctx, "failed to delete expired tokens", "error", err)
	} else {
		w.report(ctx, kindTokens, removed)
	}
}

func (w *Worker) report(ctx context.Context, kind string, removed int) {
	if w.observer != nil {
		w.observer.ObserveCleanup(kind, removed)
	}
	if removed > 0 {
		w.logger.InfoContext(ctx, "expired records removed",
			"kind", kind,
			"count", removed,
		)
	}
}
