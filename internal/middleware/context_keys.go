package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
)

const (
	userIDKey   = contextKey("userID")
	userRoleKey = contextKey("userRole")
)

// GetUserIDFromContext retrieves the authenticated user ID from the request context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	return UserIDFromCtx(c.Request.Context())
}

// GetUserRoleFromContext retrieves the authenticated user's role. Tokens without a role
// claim act as buyers.
func GetUserRoleFromContext(c *gin.Context) domain.UserRole {
	return UserRoleFromCtx(c.Request.Context())
}

// UserIDFromCtx retrieves the authenticated user ID from a standard context.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func UserRoleFromCtx(ctx context.Context) domain.UserRole {
	if role, ok := ctx.Value(userRoleKey).(domain.UserRole); ok && role.IsValid() {
		return role
	}
	return domain.RoleBuyer
}

// WithIdentity returns a copy of ctx carrying the caller's id and role.
func WithIdentity(ctx context.Context, userID string, role domain.UserRole) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}
