package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Every runs the task at a fixed interval until ctx is cancelled. Task
// errors are logged and the loop keeps going.
func Every(ctx context.Context, interval time.Duration, task Task, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := task.Run(ctx); err != nil {
				logger.Error("scheduled task failed",
					slog.String("task", task.Name()), slog.Any("err", err))
			}
		}
	}
}

// Daily runs the task once per day at UTC midnight.
func Daily(ctx context.Context, task Task, logger *slog.Logger) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := task.Run(ctx); err != nil {
				logger.Error("scheduled task failed",
					slog.String("task", task.Name()), slog.Any("err", err))
			}
		}
	}
}
