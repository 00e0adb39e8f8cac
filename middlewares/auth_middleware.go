package middlewares

import (
	"net/http"
	"strings"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the auth middlewares.
const (
	ContextUser   = "user"
	ContextClaims = "claims"
)

// AuthMiddleware requires a valid bearer access token of an active user.
func AuthMiddleware(db *gorm.DB, tm *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			utils.RespondDetail(c, http.StatusUnauthorized, utils.MsgNotAuthenticated)
			c.Abort()
			return
		}

		if !authenticate(c, db, tm, tokenString) {
			utils.RespondDetail(c, http.StatusUnauthorized, utils.MsgInvalidToken)
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalAuth attaches the user when a valid bearer token is present and
// lets anonymous requests through untouched.
func OptionalAuth(db *gorm.DB, tm *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			authenticate(c, db, tm, tokenString)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func authenticate(c *gin.Context, db *gorm.DB, tm *utils.TokenManager, tokenString string) bool {
	claims, err := tm.ParseTyped(tokenString, utils.TokenTypeAccess)
	if err != nil {
		return false
	}

	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
		return false
	}
	if !user.IsActive {
		return false
	}

	c.Set(ContextUser, &user)
	c.Set(ContextClaims, claims)
	return true
}
