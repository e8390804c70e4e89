package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextUserKey ctxKey = "user"
	ContextRoleKey ctxKey = "role"
)

// Role is the name stored in the role table.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleDepartmentManager Role = "department-manager"
	RoleEmployee          Role = "employee"
)

// CurrentUser is the identity decoded from the bearer token.
type CurrentUser struct {
	ID       int64
	Username string
}

func UserFromContext(ctx context.Context) (CurrentUser, bool) {
	if ctx == nil {
		return CurrentUser{}, false
	}
	user, ok := ctx.Value(ContextUserKey).(CurrentUser)
	return user, ok
}

func ContextWithUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

func RoleFromContext(ctx context.Context) (Role, bool) {
	if ctx == nil {
		return "", false
	}
	role, ok := ctx.Value(ContextRoleKey).(Role)
	return role, ok
}

func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, ContextRoleKey, role)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
