package middleware

import (
	"context"

	"skillbridge/internal/app/bus"
)

// Middleware wraps a bus with extra behaviour (logging, validation, etc.).
type Middleware func(next bus.Bus) bus.Bus

// Chain wraps base with mws, outermost first.
func Chain(base bus.Bus, mws ...Middleware) bus.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

type busFunc func(ctx context.Context, msg bus.Message) (any, error)

func (f busFunc) Dispatch(ctx context.Context, msg bus.Message) (any, error) {
	return f(ctx, msg)
}
