package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"moneyflow/internal/amqp"
)

// RequestSource delivers backup requests; *amqp.Client implements it.
type RequestSource interface {
	ConsumeBackupRequests(ctx context.Context, handler func(context.Context, *amqp.BackupRequestMessage) error) error
}

// Snapshotter writes one backup file and returns its path.
type Snapshotter interface {
	WriteSnapshot(ctx context.Context) (string, error)
}

// BackupWorker turns queued backup requests into snapshot files.
type BackupWorker struct {
	source    RequestSource
	snapshots Snapshotter

	handled atomic.Int64
	failed  atomic.Int64
}

func NewBackupWorker(source RequestSource, snapshots Snapshotter) *BackupWorker {
	return &BackupWorker{source: source, snapshots: snapshots}
}

// HandleBackupRequest writes a snapshot for msg. An error makes the
// broker redeliver the request.
func (w *BackupWorker) HandleBackupRequest(ctx context.Context, msg *amqp.BackupRequestMessage) error {
	slog.InfoContext(ctx, "Processing backup request",
		"request_id", msg.ID,
		"reason", msg.Reason,
		"requested_at", msg.Timestamp)

	path, err := w.snapshots.WriteSnapshot(ctx)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("write snapshot for request %s: %w", msg.ID, err)
	}
	w.handled.Add(1)
	slog.InfoContext(ctx, "Backup request completed", "request_id", msg.ID, "path", path)
	return nil
}

// Run consumes requests until ctx is cancelled.
func (w *BackupWorker) Run(ctx context.Context) error {
	if w.source == nil {
		<-ctx.Done()
		return nil
	}
	err := w.source.ConsumeBackupRequests(ctx, w.HandleBackupRequest)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Counts returns how many requests succeeded and failed so far.
func (w *BackupWorker) Counts() (handled, failed int64) {
	return w.handled.Load(), w.failed.Load()
}
