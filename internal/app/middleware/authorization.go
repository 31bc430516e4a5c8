package middleware

import (
	"context"

	"skillbridge/internal/app/bus"
	"skillbridge/internal/app/identity"
)

// UserScoped is implemented by messages that only make sense for a signed-in user.
type UserScoped interface {
	bus.Message
	RequiresUser() bool
}

// Authentication rejects user-scoped messages early when the context carries
// no identity.
func Authentication(p identity.Provider) Middleware {
	if p == nil {
		p = identity.ContextProvider{}
	}
	return func(next bus.Bus) bus.Bus {
		return busFunc(func(ctx context.Context, msg bus.Message) (any, error) {
			if scoped, ok := msg.(UserScoped); ok && scoped.RequiresUser() {
				if _, err := identity.Require(ctx, p, msg.Key()); err != nil {
					return nil, err
				}
			}
			return next.Dispatch(ctx, msg)
		})
	}
}
