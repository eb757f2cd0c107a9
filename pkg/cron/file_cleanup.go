package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CleanupRunner drains one batch of queued file removals.
type CleanupRunner interface {
	RunPending(ctx context.Context) (int, error)
}

const cleanupTimeout = 5 * time.Minute

// InitFileCleanupCron schedules runner on spec (standard cron syntax or
// descriptors such as "@every 1m"). The returned scheduler is already
// started; Stop it on shutdown.
func InitFileCleanupCron(spec string, runner CleanupRunner, logger *log.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = log.Default()
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		runFileCleanup(runner, logger)
	})
	if err != nil {
		logger.Printf("Could not initialize file cleanup cron: %v", err)
		return nil, err
	}

	c.Start()
	return c, nil
}

func runFileCleanup(runner CleanupRunner, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	n, err := runner.RunPending(ctx)
	if err != nil {
		logger.Printf("Error draining cleanup queue: %v", err)
		return
	}
	if n > 0 {
		logger.Printf("Processed %d queued file removals", n)
	}
}
