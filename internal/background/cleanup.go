package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketsquad/authgate/internal/repositories"
)

// CleanupManager periodically removes expired revoked tokens and resets
// lockouts whose block window has long passed.
type CleanupManager struct {
	revocationRepo *repositories.TokenRevocationRepository
	accountRepo    *repositories.AccountRepository
	policyRepo     *repositories.PolicyRepository
	logger         *slog.Logger
	interval       time.Duration
	stopCh         chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	revocationRepo *repositories.TokenRevocationRepository,
	accountRepo *repositories.AccountRepository,
	policyRepo *repositories.PolicyRepository,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		revocationRepo: revocationRepo,
		accountRepo:    accountRepo,
		policyRepo:     policyRepo,
		logger:         logger,
		interval:       interval,
		stopCh:         make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.revocationRepo.CleanupExpiredTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
	} else if rowsDeleted > 0 {
		cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}

	// Expired lockouts are also cleared lazily on login; this sweep only
	// covers accounts that never came back.
	policy, err := cm.policyRepo.Get(cleanupCtx)
	if err != nil {
		cm.logger.Warn("failed to read login policy for cleanup, using defaults", slog.Any("error", err))
	}

	rowsReset, err := cm.accountRepo.ClearExpiredBlocks(cleanupCtx, policy.TempBlockDuration)
	if err != nil {
		cm.logger.Error("failed to clear expired lockouts", slog.Any("error", err))
		return
	}
	if rowsReset > 0 {
		cm.logger.Info("expired lockout cleanup completed", slog.Int64("rows_reset", rowsReset))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
