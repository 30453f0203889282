// Package retention reclaims per-job artifacts: deferred cleanup of
// finished jobs and a startup sweep of directories left by prior runs.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/openscribe/openscribe/pkg/jobstore"
)

// Manager owns deletion of job working directories and store records.
// Handoff from workers is strictly sequential, so a directory is never
// touched by the manager while its worker still runs.
type Manager struct {
	store       *jobstore.Store
	uploadsRoot string
	retention   time.Duration
	orphanAge   time.Duration
	logger      *zap.Logger

	afterFunc func(time.Duration, func()) *time.Timer
	now       func() time.Time
}

func New(store *jobstore.Store, uploadsRoot string, retention, orphanAge time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:       store,
		uploadsRoot: uploadsRoot,
		retention:   retention,
		orphanAge:   orphanAge,
		logger:      logger,
		afterFunc:   time.AfterFunc,
		now:         time.Now,
	}
}

// Schedule arms one-shot deferred cleanup for a finished job without
// blocking the caller. After the retention interval the job's working
// directory and its store record are removed together; failures are
// logged and swallowed so a second attempt stays harmless.
func (m *Manager) Schedule(id, requestDir string) {
	m.afterFunc(m.retention, func() {
		m.cleanup(id, requestDir)
	})
}

func (m *Manager) cleanup(id, requestDir string) {
	if err := os.RemoveAll(requestDir); err != nil {
		m.logger.Warn("remove job directory",
			zap.String("job_id", id),
			zap.String("dir", requestDir),
			zap.Error(err))
	}
	m.store.Remove(id)
	m.logger.Info("job cleaned up", zap.String("job_id", id))
}

// SweepOrphans deletes leftover upload directories older than the
// configured maximum age. It runs once, synchronously, before any
// submission is accepted.
func (m *Manager) SweepOrphans() error {
	deleted, err := m.Sweep(m.orphanAge, false)
	if err != nil {
		return err
	}
	if deleted > 0 {
		m.logger.Info("orphan sweep finished", zap.Int("deleted", deleted))
	}
	return nil
}

// Sweep removes every subdirectory of the uploads root whose
// modification time is older than maxAge. With dryRun it only counts.
// Per-directory failures are logged and do not abort the sweep.
func (m *Manager) Sweep(maxAge time.Duration, dryRun bool) (int, error) {
	entries, err := os.ReadDir(m.uploadsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read uploads root: %w", err)
	}

	cutoff := m.now().Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			m.logger.Warn("stat upload directory",
				zap.String("dir", entry.Name()),
				zap.Error(err))
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if !dryRun {
			dir := filepath.Join(m.uploadsRoot, entry.Name())
			if err := os.RemoveAll(dir); err != nil {
				m.logger.Warn("remove orphan directory",
					zap.String("dir", dir),
					zap.Error(err))
				continue
			}
		}
		deleted++
	}
	return deleted, nil
}
