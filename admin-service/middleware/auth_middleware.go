package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"launchpulse-backend/shared/rbac"
	utils "launchpulse-backend/shared/utils/auth"
)

// RequireAuthentication verifies the bearer token issued by the identity
// provider and stores the caller's user id in the request context.
// Authorization decisions happen later, in each handler's guard call.
func RequireAuthentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractBearerToken(c)
		if err != "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": err,
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		claims, validateErr := utils.ValidateJWT(tokenString)
		if validateErr != nil || claims.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		c.Set(rbac.ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// extractBearerToken pulls the token from the Authorization header.
// Returns the token and an empty error message, or an error message.
func extractBearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Missing Authorization header"
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", "Authorization header must use the Bearer scheme"
	}
	return tokenString, ""
}
