// Package sweep keeps the render scratch directory self-cleaning: the
// orchestrator removes its own temp files, the sweeper picks up anything a
// crashed process left behind.
package sweep

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Sweeper struct {
	dir    string
	maxAge time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

func New(dir string, maxAge time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge, log: log, now: time.Now}
}

// Sweep removes regular files older than maxAge and returns how many were
// deleted. Errors on individual files are logged and skipped.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", s.dir).Msg("sweep: read dir")
		return 0
	}
	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("sweep: remove")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Str("dir", s.dir).Msg("swept stale temp files")
	}
	return removed
}

// Schedule registers the sweep on a cron spec and returns the started cron.
// Callers stop it on shutdown.
func (s *Sweeper) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Sweep() }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
