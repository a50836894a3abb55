package glossary

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionService periodically deletes timestamped ".bak.json" glossary
// backups older than maxAge. Grounded on the teacher's cleanup.Service
// ticker loop; scoped here to one filesystem sweep instead of two
// database queries.
type RetentionService struct {
	dir    string
	maxAge time.Duration
	period time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRetentionService creates a service that sweeps dir every period,
// deleting backups older than maxAge. maxAge <= 0 disables the sweep.
func NewRetentionService(dir string, maxAge, period time.Duration) *RetentionService {
	return &RetentionService{dir: dir, maxAge: maxAge, period: period}
}

// Start launches the background sweep loop. A no-op if already started or
// if maxAge <= 0.
func (s *RetentionService) Start(ctx context.Context) {
	if s.cancel != nil || s.maxAge <= 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("glossary retention service started", "dir", s.dir, "max_age", s.maxAge, "period", s.period)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *RetentionService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("glossary retention service stopped")
}

func (s *RetentionService) run(ctx context.Context) {
	defer close(s.done)

	s.sweep()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *RetentionService) sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.Contains(name, ".bak.json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
				slog.Warn("glossary retention: failed to remove backup", "file", name, "error", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		slog.Info("glossary retention: removed expired backups", "count", removed)
	}
}
