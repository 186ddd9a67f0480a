package news

import (
	"context"
	"fmt"
	"time"

	"beegate/internal/observability/logging"

	"github.com/go-co-op/gocron/v2"
)

// Refresher periodically clears the news cache and fetches again
type Refresher struct {
	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

// StartRefresher schedules a refresh every interval, starting immediately.
// ctx bounds every refresh run.
func StartRefresher(ctx context.Context, aggregator *Aggregator, interval time.Duration, logger *logging.Logger) (*Refresher, error) {
	logger = logger.WithModule("news.refresh")

	sched, err := gocron.NewScheduler(gocron.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create news scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, done := context.WithTimeout(ctx, interval)
			defer done()

			items, err := aggregator.Refresh(runCtx)
			if err != nil {
				logger.Warn("News refresh failed", logging.Err(err))
				return
			}
			logger.Debug("News refreshed", "items", len(items))
		}),
		gocron.WithName("news-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		sched.Shutdown()
		return nil, fmt.Errorf("schedule news refresh: %w", err)
	}

	sched.Start()
	logger.Info("News refresh scheduled", "interval", interval.String())
	return &Refresher{scheduler: sched, cancel: cancel}, nil
}

// Stop cancels a running refresh and stops the scheduler
func (r *Refresher) Stop() error {
	r.cancel()
	return r.scheduler.Shutdown()
}
