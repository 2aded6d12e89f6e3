package server

import (
	"context"

	"kyklos/internal/store"
)

type authContextKey struct{}

func contextWithUser(ctx context.Context, user *store.AuthUser) context.Context {
	return context.WithValue(ctx, authContextKey{}, user)
}

func userFromContext(ctx context.Context) (*store.AuthUser, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(authContextKey{}).(*store.AuthUser)
	return user, ok && user != nil
}
