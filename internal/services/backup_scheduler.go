package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BackupScheduler writes a snapshot every interval until stopped.
type BackupScheduler struct {
	backup   *BackupService
	interval time.Duration

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewBackupScheduler(backup *BackupService, interval time.Duration) *BackupScheduler {
	return &BackupScheduler{
		backup:   backup,
		interval: interval,
	}
}

// Start begins the snapshot loop. Returns an error if already running.
func (p *BackupScheduler) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got %v", p.interval)
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("backup scheduler is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	slog.InfoContext(ctx, "Backup scheduler started", "interval", p.interval)
	return nil
}

// Stop signals the loop and waits for it, or for ctx.
func (p *BackupScheduler) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Backup scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Backup scheduler stop timed out")
		return ctx.Err()
	}
}

func (p *BackupScheduler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *BackupScheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.backup.WriteSnapshot(ctx); err != nil {
				slog.ErrorContext(ctx, "Scheduled backup failed", "error", err)
			}
		}
	}
}
