package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
)

const currentUserKey = "current_user"

// ExtractBearerToken pulls the raw token out of the Authorization header
func ExtractBearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Authorization header is required"}
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Authorization header must be of the form 'Bearer <token>'"}
	}
	return parts[1], nil
}

// EnsureValidToken checks the access token on the request and loads the
// authenticated user into the context. Requests without a valid access token
// are rejected before the handler runs.
func EnsureValidToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := ExtractBearerToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"errors": gin.H{"detail": err.Error()},
			})
			c.Abort()
			return
		}

		claims, err := services.ParseAccessToken(tokenString, config.GetConfig())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"errors": gin.H{"detail": "Invalid or expired access token."},
			})
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"errors": gin.H{"detail": "Invalid or expired access token."},
			})
			c.Abort()
			return
		}

		var user models.User
		if err := config.GetDB().First(&user, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"errors": gin.H{"detail": "The user for this token no longer exists."},
			})
			c.Abort()
			return
		}

		c.Set(currentUserKey, &user)
		c.Next()
	}
}

// RequireRole rejects requests from users below the given role
func RequireRole(minimum models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"errors": gin.H{"detail": "Authentication required."},
			})
			c.Abort()
			return
		}

		if !user.Role.AtLeast(minimum) {
			c.JSON(http.StatusForbidden, gin.H{
				"errors": gin.H{"detail": "You do not have permission to perform this action."},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetCurrentUser extracts the authenticated user from the Gin context
func GetCurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User in context has an unexpected type"}
	}
	return user, nil
}

// SetCurrentUser stores the authenticated user on the context (primarily for testing)
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(currentUserKey, user)
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
