// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/cwcconnect/internal/app/system/dirsync"
	"github.com/dalemusser/cwcconnect/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Job names, used by the status endpoint to look up schedules.
const (
	EmployeeSyncJobName = "employee-sync"
	StorePingJobName    = "store-ping"
)

// Syncer runs one directory sync cycle.
type Syncer interface {
	Run(ctx context.Context) (dirsync.Result, error)
}

// Pinger refreshes the store availability flag.
type Pinger interface {
	Refresh(ctx context.Context) (becameAvailable bool, err error)
	IsAvailable() bool
}

// EmployeeSyncJob creates the recurring sync job. A failed cycle is logged by
// the runner and retried on the next tick.
func EmployeeSyncJob(engine Syncer, interval time.Duration, runAtStart bool) Job {
	return Job{
		Name:       EmployeeSyncJobName,
		Interval:   interval,
		RunAtStart: runAtStart,
		Run: func(ctx context.Context) error {
			_, err := engine.Run(ctx)
			return err
		},
	}
}

// StorePingJob creates a job that keeps the availability flag current. timeout
// bounds each ping only. When the store comes back, onRestore runs under the
// job's own context so it may outlive the ping deadline.
func StorePingJob(p Pinger, onRestore func(context.Context) error, m *metrics.Metrics, logger *zap.Logger, interval, timeout time.Duration) Job {
	return Job{
		Name:     StorePingJobName,
		Interval: interval,
		Run: func(ctx context.Context) error {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			restored, err := p.Refresh(pctx)
			cancel()
			m.SetStoreAvailable(p.IsAvailable())
			if err != nil {
				logger.Debug("store ping failed", zap.Error(err))
				return nil
			}
			if restored && onRestore != nil {
				if err := onRestore(ctx); err != nil {
					return err
				}
				logger.Info("store restored")
			}
			return nil
		},
	}
}
