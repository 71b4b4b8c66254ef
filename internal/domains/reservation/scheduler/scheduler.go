package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"roomres/config"
	"roomres/internal/domains/reservation/service"
)

// Sweeper periodically cancels unpaid bank transfer reservations that are
// still pending past their grace period. A failed run is only logged; the
// next tick retries with the same cutoff rule.
type Sweeper struct {
	svc service.Reservation
	cfg *config.Config
}

func New(svc service.Reservation, cfg *config.Config) *Sweeper {
	return &Sweeper{
		svc: svc,
		cfg: cfg,
	}
}

// Run sweeps once immediately and then on every interval tick until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Sweep.Enable {
		log.Info().Msg("reservation sweep disabled")

		return
	}

	interval := time.Duration(s.cfg.Sweep.IntervalHours) * time.Hour

	log.Info().
		Dur("interval", interval).
		Int("grace_days", s.cfg.Sweep.GraceDays).
		Msg("starting reservation sweep scheduler")

	s.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reservation sweep scheduler stopped")

			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.svc.CancelPendingBankTransfers(ctx); err != nil {
		log.Error().Err(err).Msg("reservation sweep failed")
	}
}
