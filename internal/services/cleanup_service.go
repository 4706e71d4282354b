package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"translatorapp/internal/config"
	"translatorapp/internal/observability"
)

// CleanupService removes translated artifacts past their retention window
// and any upload that survived a crashed request.
type CleanupService struct {
	cfg    *config.StorageConfig
	logger *observability.Logger
}

// NewCleanupService creates the retention sweeper.
func NewCleanupService(cfg *config.StorageConfig, logger *observability.Logger) *CleanupService {
	return &CleanupService{cfg: cfg, logger: logger}
}

// RunOnce performs a single sweep and returns the number of files removed.
// Individual removal failures are logged and skipped; the sweep always
// completes.
func (s *CleanupService) RunOnce(ctx context.Context) (removed int) {
	ctx, span := observability.TraceCleanupFunction(ctx, "run_once")
	defer span.End()

	cutoff := time.Now().Add(-s.cfg.ArtifactRetention)

	removed += s.sweepDir(ctx, s.cfg.ArtifactDir, "translated_", cutoff)
	if s.cfg.UploadDir != s.cfg.ArtifactDir {
		// Orphaned uploads use the same retention as artifacts.
		removed += s.sweepDir(ctx, s.cfg.UploadDir, "", cutoff)
	}

	if removed > 0 {
		s.logger.Info(ctx, "Cleanup sweep removed expired files", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed
}

// sweepDir removes regular files under dir older than cutoff. When prefix is
// non-empty only matching filenames are considered.
func (s *CleanupService) sweepDir(ctx context.Context, dir, prefix string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn(ctx, "Cleanup could not read directory", map[string]interface{}{
				"dir":   dir,
				"error": err.Error(),
			})
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn(ctx, "Cleanup failed to remove file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		removed++
	}
	return removed
}

// Start runs the sweep on the configured interval until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	s.logger.Info(ctx, "Cleanup service started", map[string]interface{}{
		"interval":  s.cfg.CleanupInterval.String(),
		"retention": s.cfg.ArtifactRetention.String(),
	})

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
