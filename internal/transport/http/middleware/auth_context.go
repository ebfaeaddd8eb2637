package middleware

import (
	"context"

	"github.com/baechuer/chatcpe-service/internal/domain"
	appCtx "github.com/baechuer/chatcpe-service/internal/pkg/context"
)

type userKey struct{}

// WithUser stores the caller and tags the context with its id for logging.
func WithUser(ctx context.Context, u domain.User) context.Context {
	ctx = appCtx.WithUserID(ctx, u.ID)
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok && u.ID > 0
}
