package rbac

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextUserIDKey is where the authentication middleware stores the
// caller's user id.
const ContextUserIDKey = "user_id"

// CallerID returns the authenticated caller's id from the request context.
func CallerID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUnauthenticated
	}
	idStr, ok := raw.(string)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return userID, nil
}

// RequirePermission is the authorization guard. It resolves the caller's
// identity, checks the named permission within the organization and
// returns the caller's id. Called directly at the top of every mutating
// handler; not optional middleware.
func (s *Service) RequirePermission(c *gin.Context, permission string, orgID uuid.UUID) (uuid.UUID, error) {
	userID, err := CallerID(c)
	if err != nil {
		return uuid.Nil, err
	}

	if !s.HasPermission(c.Request.Context(), userID, orgID, permission) {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrPermissionDenied, permission)
	}
	return userID, nil
}
