package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"moneyflow/internal/store"
)

const snapshotPrefix = "moneyflow-backup-"

// BackupPublisher hands a backup request to the worker. *amqp.Client
// implements it.
type BackupPublisher interface {
	PublishBackupRequest(ctx context.Context, reason string) (string, error)
}

// BackupConfig says where snapshot files go and how many are kept.
type BackupConfig struct {
	Dir  string
	Keep int
}

func DefaultBackupConfig() BackupConfig {
	return BackupConfig{
		Dir:  "data/backups",
		Keep: 10,
	}
}

// BackupReceipt tells the caller what happened to a backup request:
// either it was queued for the worker or a file was written right away.
type BackupReceipt struct {
	Queued    bool   `json:"queued"`
	RequestID string `json:"requestId,omitempty"`
	Path      string `json:"path,omitempty"`
}

// BackupService exports, imports and wipes the whole dataset.
type BackupService struct {
	store     store.Store
	publisher BackupPublisher
	config    BackupConfig
	changes   *Changes
	now       func() time.Time
}

// NewBackupService wires the service. publisher may be nil when no broker
// is configured; pass an untyped nil, not a nil *amqp.Client.
func NewBackupService(st store.Store, publisher BackupPublisher, config BackupConfig, changes *Changes) *BackupService {
	if config.Keep <= 0 {
		config.Keep = DefaultBackupConfig().Keep
	}
	return &BackupService{
		store:     st,
		publisher: publisher,
		config:    config,
		changes:   changes,
		now:       time.Now,
	}
}

// Export reads all four collections concurrently.
func (s *BackupService) Export(ctx context.Context) (Backup, error) {
	var snap store.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx)
		snap.Transactions = txs
		return err
	})
	g.Go(func() error {
		goals, err := s.store.ListGoals(gctx)
		snap.Goals = goals
		return err
	})
	g.Go(func() error {
		notes, err := s.store.GetNotes(gctx)
		snap.Notes = notes
		return err
	})
	g.Go(func() error {
		qn, err := s.store.ListQuickNotes(gctx)
		snap.QuickNotes = qn
		return err
	})
	if err := g.Wait(); err != nil {
		return Backup{}, fmt.Errorf("export: %w", err)
	}
	return NewBackup(snap, s.now()), nil
}

// Import replaces the dataset with the backup. Nothing changes when the
// backup does not validate.
func (s *BackupService) Import(ctx context.Context, b Backup) error {
	snap, err := b.Snapshot(s.now())
	if err != nil {
		return err
	}
	if err := s.store.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	s.changes.notify()
	slog.InfoContext(ctx, "Backup imported",
		"transactions", len(snap.Transactions),
		"goals", len(snap.Goals),
		"quick_notes", len(snap.QuickNotes))
	return nil
}

// Clear removes transactions, goals, notes and quick notes.
func (s *BackupService) Clear(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	s.changes.notify()
	slog.WarnContext(ctx, "All data cleared")
	return nil
}

// RequestBackup queues a snapshot for the backup worker. Without a broker,
// or when publishing fails, the snapshot is written here instead.
func (s *BackupService) RequestBackup(ctx context.Context, reason string) (BackupReceipt, error) {
	if s.publisher != nil {
		id, err := s.publisher.PublishBackupRequest(ctx, reason)
		if err == nil {
			return BackupReceipt{Queued: true, RequestID: id}, nil
		}
		slog.WarnContext(ctx, "Failed to queue backup request, writing locally", "error", err)
	}
	path, err := s.WriteSnapshot(ctx)
	if err != nil {
		return BackupReceipt{}, err
	}
	return BackupReceipt{Path: path}, nil
}

// WriteSnapshot exports the dataset into the backup directory and prunes
// old snapshots. It returns the new file's path.
func (s *BackupService) WriteSnapshot(ctx context.Context) (string, error) {
	b, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	data, err := b.Encode()
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(s.config.Dir, snapshotName(b.ExportDate))
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	slog.InfoContext(ctx, "Backup snapshot written", "path", path, "bytes", len(data))

	if err := pruneSnapshots(s.config.Dir, s.config.Keep); err != nil {
		slog.WarnContext(ctx, "Failed to prune old backups", "dir", s.config.Dir, "error", err)
	}
	return path, nil
}

// snapshotName sorts chronologically; names of the same second collide
// and the later write wins.
func snapshotName(t time.Time) string {
	return snapshotPrefix + t.UTC().Format("2006-01-02T150405Z") + ".json"
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// pruneSnapshots keeps the newest keep snapshot files in dir.
func pruneSnapshots(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, snapshotPrefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) <= keep {
		return nil
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
