package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredCartDeleter removes carts whose expiry has passed
type ExpiredCartDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CartSweeper periodically deletes expired carts
type CartSweeper struct {
	carts    ExpiredCartDeleter
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCartSweeper constructs a CartSweeper
func NewCartSweeper(carts ExpiredCartDeleter, interval time.Duration, logger *zap.Logger) *CartSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CartSweeper{
		carts:    carts,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *CartSweeper) Start(ctx context.Context) {
	w.logger.Info("Starting cart sweeper", zap.Duration("interval", w.interval))

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			w.logger.Info("Cart sweeper stopped")
			return
		}
	}
}

func (w *CartSweeper) run(ctx context.Context) {
	start := time.Now()
	deleted, err := w.carts.DeleteExpired(ctx, w.now())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Failed to delete expired carts", zap.Error(err))
		}
		return
	}

	if deleted > 0 {
		w.logger.Info("Expired carts deleted",
			zap.Int64("deleted", deleted),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
