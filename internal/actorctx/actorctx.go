package actorctx

import (
	"context"

	"github.com/geocoder89/devdeck/internal/access"
)

type callerKey struct{}

// WithCaller stores the authenticated caller on a context so code below the
// HTTP layer (services, jobs) can read it.
func WithCaller(ctx context.Context, c access.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the stored caller, or Anonymous when none is set.
func CallerFrom(ctx context.Context) access.Caller {
	c, ok := ctx.Value(callerKey{}).(access.Caller)
	if !ok {
		return access.Anonymous()
	}
	return c
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	c := CallerFrom(ctx)
	return c.UserID, c.Authenticated()
}
