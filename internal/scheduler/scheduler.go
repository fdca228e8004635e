package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/crucial707/todo-api/internal/metrics"
	"github.com/robfig/cron/v3"
)

// DefaultPingSchedule is used when no schedule is configured.
const DefaultPingSchedule = "@every 30s"

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Scheduler runs background maintenance jobs on cron schedules.
// Today that is the database health check behind the db_up gauge; /ready pings on its own.
type Scheduler struct {
	cron    *cron.Cron
	db      Pinger
	timeout time.Duration
	healthy atomic.Bool
}

// New registers the database ping job on spec (standard cron or @every).
func New(db Pinger, spec string) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultPingSchedule
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		db:      db,
		timeout: 5 * time.Second,
	}
	if _, err := s.cron.AddFunc(spec, s.pingDB); err != nil {
		return nil, fmt.Errorf("scheduler: invalid ping schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs one check synchronously, so Healthy is meaningful immediately, then starts the cron loop.
func (s *Scheduler) Start() {
	s.pingDB()
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts the cron loop and waits for a running job, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler: stop timed out waiting for running job")
	}
}

// Healthy reports the result of the most recent database ping.
func (s *Scheduler) Healthy() bool {
	return s.healthy.Load()
}

func (s *Scheduler) pingDB() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.db.PingContext(ctx)
	up := err == nil
	if was := s.healthy.Swap(up); was != up {
		if up {
			slog.Info("scheduler: database reachable")
		} else {
			slog.Error("scheduler: database ping failed", "error", err)
		}
	}
	metrics.SetDBUp(up)
}
