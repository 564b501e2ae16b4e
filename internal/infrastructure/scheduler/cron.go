package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"NewsRefinery/internal/ports"
)

// CronScheduler drives periodic ingestion runs from a cron expression.
type CronScheduler struct {
	spec string
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for the given cron expression and zone.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{
		spec: spec,
		cron: cron.New(cron.WithLocation(location)),
	}
}

// Start registers the job and begins the cron loop. An empty expression is a
// no-op so that manually triggered deployments need no scheduler config.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if c.spec == "" || job == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.spec, func() { job(time.Now()) }); err != nil {
		return err
	}

	c.cron.Start()

	go func() {
		<-ctx.Done()
		c.cron.Stop()
	}()

	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
