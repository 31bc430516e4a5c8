package middleware

import (
	"context"
	"log/slog"
	"time"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/failure"
)

func Logging(logger *slog.Logger) Middleware {
	return func(next bus.Bus) bus.Bus {
		if logger == nil {
			return next
		}
		return busFunc(func(ctx context.Context, msg bus.Message) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, msg)
			if err != nil {
				logger.Warn("bus message failed",
					"key", msg.Key(),
					"duration", time.Since(start),
					"kind", failure.KindOf(err),
					"error", err)
				return res, err
			}
			logger.Debug("bus message handled", "key", msg.Key(), "duration", time.Since(start))
			return res, nil
		})
	}
}
