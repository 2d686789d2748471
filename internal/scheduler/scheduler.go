package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/craftline/salesdesk/internal/clock"
	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log    *zap.Logger
	Orders orderdomain.Service
	Clock  clock.Clock
	Config Config `optional:"true"`
}

// Scheduler drives the background tracking refresh so courier statuses
// keep moving even when nobody is looking at an order.
type Scheduler struct {
	log    *zap.Logger
	cfg    Config
	orders orderdomain.Service
	clock  clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Orders == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:    p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:    p.Config.withDefaults(),
		orders: p.Orders,
		clock:  p.Clock,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	err := fn(ctx)
	elapsed := time.Since(start)

	if err == nil {
		s.log.Debug("job finished", zap.String("job", name), zap.Duration("elapsed", elapsed))
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, "tracking_refresh", func(ctx context.Context) error {
		refreshed, err := s.orders.RefreshTracking(ctx)
		if err != nil {
			return err
		}
		if refreshed > 0 {
			s.log.Info("tracking refreshed", zap.Int("waybills", refreshed))
		}
		return nil
	})
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
