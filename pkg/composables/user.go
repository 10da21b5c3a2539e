package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/apolice/crm/pkg/constants"
)

var ErrNoUser = errors.New("no user found in context")

// User is the acting identity attached to every mutating request.
type User struct {
	ID    uuid.UUID
	Email string
	Admin bool
}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

// UseUser returns the acting user from the context.
// If no user is present, the second return value is false.
func UseUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(constants.UserKey).(User)
	return u, ok
}

// MustUseUser returns the acting user or ErrNoUser. Mutating operations
// treat a missing user as a hard precondition failure.
func MustUseUser(ctx context.Context) (User, error) {
	u, ok := UseUser(ctx)
	if !ok || u.ID == uuid.Nil {
		return User{}, ErrNoUser
	}
	return u, nil
}
