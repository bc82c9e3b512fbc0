package service

import (
	"context"
	"time"

	"tgstorefront/internal/repository"

	"go.uber.org/zap"
)

// CleanupInterval is how often expired handoff codes are swept in the background
const CleanupInterval = 5 * time.Minute

// CleanupService removes expired handoff codes that were never consumed
type CleanupService struct {
	sweeper repository.HandoffSweeper
	logger  *zap.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(sweeper repository.HandoffSweeper, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		sweeper: sweeper,
		logger:  logger,
	}
}

// SweepExpired removes expired handoff codes once
func (s *CleanupService) SweepExpired(ctx context.Context) error {
	removed, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep handoff codes", zap.Error(err))
		return err
	}

	s.logger.Info("Handoff sweep completed", zap.Int64("removed", removed))
	return nil
}

// Run sweeps at startup and then every interval until ctx is done
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	_ = s.SweepExpired(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			_ = s.SweepExpired(ctx)
		}
	}
}
