package worker

import (
	"context"
	"log"
	"time"

	"smartcrm/entitlement"

	"gorm.io/gorm"
)

// OverrideSweeper removes override rows whose expiry lapsed longer than
// the retention window ago. Resolution already ignores expired rows; the
// sweeper only keeps the table from growing without bound, so repeated
// resolution stays proportional to active overrides.
type OverrideSweeper struct {
	DB            *gorm.DB
	Overrides     *entitlement.Overrides
	Logger        *log.Logger
	Retention     time.Duration
	StartDelay    time.Duration
	SweepInterval time.Duration
}

func NewOverrideSweeper(db *gorm.DB, logger *log.Logger, retentionDays int) *OverrideSweeper {
	return &OverrideSweeper{
		DB:            db,
		Overrides:     entitlement.NewOverrides(db),
		Logger:        logger,
		Retention:     time.Duration(retentionDays) * 24 * time.Hour,
		StartDelay:    10 * time.Second,
		SweepInterval: 1 * time.Hour,
	}
}

func (os *OverrideSweeper) Start(ctx context.Context) {
	// Initial delay to let the server start up; shutdown during the delay
	// must not block.
	startup := time.NewTimer(os.StartDelay)
	defer startup.Stop()
	select {
	case <-ctx.Done():
		return
	case <-startup.C:
	}

	os.Logger.Println("Override sweeper started")

	ticker := time.NewTicker(os.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			os.Logger.Println("Override sweeper shutting down...")
			return
		case <-ticker.C:
			os.sweep(ctx)
		}
	}
}

func (os *OverrideSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-os.Retention)
	removed, err := os.Overrides.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		os.Logger.Printf("Error sweeping expired overrides: %v", err)
		return
	}
	if removed > 0 {
		os.Logger.Printf("Swept %d expired overrides older than %s", removed, cutoff.Format(time.RFC3339))
	}
}
