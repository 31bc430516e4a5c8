package identity

import (
	"context"
	"strings"

	"skillbridge/internal/app/failure"
)

// Provider answers who is acting for the current call. The id travels with
// the context; nothing is kept process-wide.
type Provider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

type userKey struct{}

func WithUser(ctx context.Context, userID string) context.Context {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey{}, userID)
}

func UserFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

// ContextProvider reads the user placed by WithUser.
type ContextProvider struct{}

func (ContextProvider) CurrentUserID(ctx context.Context) (string, bool) {
	return UserFromContext(ctx)
}

// Require returns the current user or a NOT_AUTHENTICATED failure.
func Require(ctx context.Context, p Provider, op string) (string, error) {
	if p == nil {
		p = ContextProvider{}
	}
	id, ok := p.CurrentUserID(ctx)
	if !ok {
		return "", failure.New(failure.KindNotAuthenticated, op, nil)
	}
	return id, nil
}
