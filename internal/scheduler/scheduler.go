// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// purgeTimeout caps a single purge run.
const purgeTimeout = 30 * time.Second

// Janitor purges expired sessions on an hourly schedule. Expired sessions
// are already rejected at the door; the janitor only keeps the table from
// growing without bound.
type Janitor struct {
	cron     *cron.Cron
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// NewJanitor creates a Janitor. Jobs do not run until Start is called.
func NewJanitor(sessions repository.SessionRepository, logger *slog.Logger) *Janitor {
	return &Janitor{
		cron:     cron.New(),
		sessions: sessions,
		logger:   logger,
	}
}

// Start registers the purge job and starts the scheduler.
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc("@hourly", j.purge)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("session janitor started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("session janitor stopped")
}

func (j *Janitor) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	purged, err := j.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		j.logger.Error("failed to purge expired sessions", slog.String("error", err.Error()))
		return
	}

	if purged > 0 {
		j.logger.Info("purged expired sessions", slog.Int64("count", purged))
	}
}
