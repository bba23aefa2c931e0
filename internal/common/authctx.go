package common

import "context"

type ctxKey string

const (
	userIDKey ctxKey = "auth/user-id"
	actorKey  ctxKey = "auth/actor"
	rolesKey  ctxKey = "auth/roles"
)

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithActor stores the display name of the authenticated admin.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey, name)
}

// Actor returns the display name of the authenticated admin, if any.
func Actor(ctx context.Context) string {
	name, _ := ctx.Value(actorKey).(string)
	return name
}

// WithRoles stores the roles granted to the caller.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, rolesKey, append([]string(nil), roles...))
}

// HasRole reports whether the caller was granted role.
func HasRole(ctx context.Context, role string) bool {
	roles, _ := ctx.Value(rolesKey).([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
