package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes expired state and reports how many entries it dropped.
type Sweeper interface {
	Sweep(now time.Time) int
}

// cronParser accepts standard 5-field expressions, an optional seconds
// field and descriptors such as "@every 5m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Janitor runs a Sweeper on a cron schedule.
type Janitor struct {
	cron    *cron.Cron
	sweeper Sweeper
	now     func() time.Time
}

// NewJanitor validates schedule and registers the sweep job. The job does
// not run until Run is called.
func NewJanitor(schedule string, sweeper Sweeper) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(cron.WithParser(cronParser)),
		sweeper: sweeper,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) sweep() {
	removed := j.sweeper.Sweep(j.now())
	slog.Debug("session sweep finished", "component", "janitor", "removed", removed)
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running sweep to finish.
func (j *Janitor) Run(ctx context.Context) error {
	j.cron.Start()
	slog.Info("session janitor started", "component", "janitor")

	<-ctx.Done()
	<-j.cron.Stop().Done()
	slog.Info("session janitor stopped", "component", "janitor")
	return nil
}
