package middleware

import (
	"context"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/outbox"
)

// OutboxFlush flushes buffered event records after a successful dispatch.
func OutboxFlush(box outbox.Outbox) Middleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next bus.Bus) bus.Bus {
		return busFunc(func(ctx context.Context, msg bus.Message) (any, error) {
			res, err := next.Dispatch(ctx, msg)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
