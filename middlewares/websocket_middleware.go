package middlewares

import (
	"net/http"

	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WebSocketAuthMiddleware authenticates browser websocket handshakes,
// which cannot carry an Authorization header, from the token query value.
func WebSocketAuthMiddleware(db *gorm.DB, tm *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			if header, ok := bearerToken(c); ok {
				token = header
			}
		}
		if token == "" {
			utils.RespondDetail(c, http.StatusUnauthorized, utils.MsgNotAuthenticated)
			c.Abort()
			return
		}

		if !authenticate(c, db, tm, token) {
			utils.RespondDetail(c, http.StatusUnauthorized, utils.MsgInvalidToken)
			c.Abort()
			return
		}

		c.Next()
	}
}
