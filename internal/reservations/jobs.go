package reservations

import (
	"context"
	"time"

	"roomly/internal/availability"
	"roomly/internal/notifications"
	"roomly/pkg/logger"
)

// sweepBatchSize bounds one sweep pass so a backlog of lapsed holds cannot
// starve the ticker
const sweepBatchSize = 200

// SweepExpiredReservations transitions every lapsed ACTIVE hold to EXPIRED
// and cancels its RESERVED booking. Each transition is individually guarded
// in the repository, so two sweeps racing each other, or a sweep racing a
// confirm, settle on exactly one winner per reservation.
func (s *service) SweepExpiredReservations(ctx context.Context) (int, error) {
	now := time.Now()

	lapsed, err := s.repo.GetLapsedReservations(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, reservation := range lapsed {
		affected, err := s.repo.ExpireReservation(ctx, reservation.ID, now)
		if err != nil {
			logger.GetDefault().ErrorWithContext(ctx, "failed to expire reservation", err,
				map[string]interface{}{"reservation_id": reservation.ID.String()})
			continue
		}
		if affected == 0 {
			// confirmed or cancelled since the scan
			continue
		}
		swept++

		booking, err := s.repo.GetByID(ctx, reservation.BookingID)
		if err != nil {
			continue
		}
		logger.GetDefault().LogReservationExpired(ctx, reservation.ReservationReference, booking.RoomID.String())
		s.publishEvent(ctx, notifications.EventReservationExpired, booking, nil)
		s.warmLedger(ctx, booking.RoomID, booking.CheckInDate, booking.CheckOutDate)
	}

	if _, err := s.repo.DeactivateStaleLocks(ctx, now); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to deactivate stale availability locks", err, nil)
	}

	return swept, nil
}

// JobProcessor runs the periodic maintenance of the reservation engine: the
// expiry sweep and the availability ledger refresh.
type JobProcessor struct {
	service      Service
	availability availability.Service
	config       *JobConfig
	done         chan struct{}
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	SweepInterval         time.Duration
	LedgerRefreshInterval time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		SweepInterval:         1 * time.Minute,
		LedgerRefreshInterval: 15 * time.Minute,
	}
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, availabilityService availability.Service, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		service:      service,
		availability: availabilityService,
		config:       config,
		done:         make(chan struct{}),
	}
}

// Start starts all background jobs
func (jp *JobProcessor) Start(ctx context.Context) {
	go jp.startExpirySweep(ctx)
	go jp.startLedgerRefresh(ctx)

	logger.GetDefault().InfoWithContext(ctx, "reservation background jobs started", map[string]interface{}{
		"sweep_interval":   jp.config.SweepInterval.String(),
		"refresh_interval": jp.config.LedgerRefreshInterval.String(),
	})
}

// Stop stops all background jobs
func (jp *JobProcessor) Stop() {
	close(jp.done)
}

func (jp *JobProcessor) startExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(jp.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.runSweep(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) runSweep(ctx context.Context) {
	swept, err := jp.service.SweepExpiredReservations(ctx)
	if err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "expiry sweep failed", err, nil)
		return
	}

	if swept > 0 {
		logger.GetDefault().InfoWithContext(ctx, "expired reservations reclaimed", map[string]interface{}{
			"count": swept,
		})
	}
}

func (jp *JobProcessor) startLedgerRefresh(ctx context.Context) {
	ticker := time.NewTicker(jp.config.LedgerRefreshInterval)
	defer ticker.Stop()

	// warm once on startup so the first reads do not all fall through
	jp.runLedgerRefresh(ctx)

	for {
		select {
		case <-ticker.C:
			jp.runLedgerRefresh(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) runLedgerRefresh(ctx context.Context) {
	if err := jp.availability.RefreshAllLedgers(ctx); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "ledger refresh failed", err, nil)
	}
}

// GetJobStatus returns the status of background jobs
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	return map[string]interface{}{
		"sweep_interval":   jp.config.SweepInterval.String(),
		"refresh_interval": jp.config.LedgerRefreshInterval.String(),
		"status":           "running",
	}
}
