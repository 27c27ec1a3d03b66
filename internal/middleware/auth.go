package middleware

import (
	"strings"

	"github.com/edtech-labs/learning-task-api/internal/auth"
	"github.com/edtech-labs/learning-task-api/internal/constants"
	apierrors "github.com/edtech-labs/learning-task-api/internal/errors"
	"github.com/edtech-labs/learning-task-api/internal/models"
	"github.com/edtech-labs/learning-task-api/internal/repository"
	"github.com/gin-gonic/gin"
)

// RequireAuth verifies the bearer token and loads the referenced user
// into the request context. Missing, malformed or expired tokens and
// tokens referencing a deleted user all fail the same way.
func RequireAuth(tokens *auth.TokenManager, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apierrors.Unauthorized(c, "Not authorized, no token")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		userID, err := tokens.Validate(tokenString)
		if err != nil {
			apierrors.Unauthorized(c, "Not authorized, token failed")
			c.Abort()
			return
		}

		user, err := userRepo.FindByID(userID)
		if err != nil {
			apierrors.Unauthorized(c, "Not authorized, token failed")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// CurrentUser retrieves the authenticated user from context
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, false
	}
	return user, true
}
