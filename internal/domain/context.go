package domain

import "context"

type userKeyCtx struct{}

// WithUserKey tags ctx with the caller's identity. Per-user caches key on it.
func WithUserKey(ctx context.Context, userKey string) context.Context {
	return context.WithValue(ctx, userKeyCtx{}, userKey)
}

// UserKey returns the identity stored by WithUserKey, or "" for anonymous
// callers.
func UserKey(ctx context.Context) string {
	key, _ := ctx.Value(userKeyCtx{}).(string)
	return key
}
