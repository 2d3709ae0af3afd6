package auth

import (
	"context"
	"errors"
)

type ctxKey int

const userIdKey ctxKey = iota

var ErrAuthRequired = errors.New("authentication required")

func WithUserId(ctx context.Context, userId uint) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

// UserId returns the authenticated user id, or 0 when unauthenticated.
func UserId(ctx context.Context) uint {
	id, _ := ctx.Value(userIdKey).(uint)
	return id
}

func RequireAuth(ctx context.Context) error {
	if UserId(ctx) == 0 {
		return ErrAuthRequired
	}
	return nil
}
