// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/recipes/internal/snapshot"
)

// Backupper produces one database backup per call.
type Backupper interface {
	Backup(ctx context.Context) (snapshot.Backup, error)
}

// BackupWorker takes periodic database backups.
type BackupWorker struct {
	backupper Backupper
	interval  time.Duration
}

// NewBackupWorker creates a worker that backs up every interval.
func NewBackupWorker(backupper Backupper, interval time.Duration) *BackupWorker {
	return &BackupWorker{
		backupper: backupper,
		interval:  interval,
	}
}

// Run backs up immediately, then on each tick, until ctx is cancelled.
// A backup already in progress runs to completion.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.backup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.backup(ctx)
		}
	}
}

func (w *BackupWorker) backup(ctx context.Context) {
	start := time.Now()
	bk, err := w.backupper.Backup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("backup failed",
			"component", "worker",
			"action", "backup_failed",
			"path", bk.Path,
			"error", err,
		)
		return
	}

	slog.Info("backup completed",
		"component", "worker",
		"action", "backup_complete",
		"path", bk.Path,
		"size_bytes", bk.Size,
		"uploaded", bk.Uploaded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
