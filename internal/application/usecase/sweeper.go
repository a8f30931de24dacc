package usecase

import (
	"context"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"

	"cipherdrop/internal/domain/repository/database"
)

const defaultSweepBatch = 100

type SweepReport struct {
	Removed int
	Failed  int
}

// Sweeper deletes transfers whose expiry has passed.
type Sweeper struct {
	lister  database.Lister
	deleter *Deleter
	batch   int64
}

func NewSweeper(lister database.Lister, deleter *Deleter, batch int64) *Sweeper {
	if batch <= 0 {
		batch = defaultSweepBatch
	}

	return &Sweeper{lister: lister, deleter: deleter, batch: batch}
}

// Sweep removes every record with expiresAt <= now. Records that fail are
// skipped for the rest of the pass and left for the next run.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	var (
		report SweepReport
		failed []string
	)

	for {
		expired, err := s.lister.ListExpired(ctx, now, failed, s.batch)
		if err != nil {
			return report, err
		}

		for i := range expired {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			if err := s.deleter.remove(ctx, &expired[i]); err != nil {
				report.Failed++
				failed = append(failed, expired[i].ID)
				logger.Warn("expired transfer not removed", "record", expired[i].ID, "err", err)

				continue
			}

			report.Removed++
		}

		if int64(len(expired)) < s.batch {
			return report, nil
		}
	}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			report, err := s.Sweep(ctx, now)
			if err != nil {
				logger.Error("sweep failed", "err", err)

				continue
			}

			if report.Removed > 0 || report.Failed > 0 {
				logger.Info("sweep finished", "removed", report.Removed, "failed", report.Failed)
			}
		}
	}
}
