package middlewares

import (
	"net/http"

	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
)

// RequireStaff lets through inspectors, admins and staff accounts.
// It must run after AuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.RespondDetail(c, http.StatusUnauthorized, utils.MsgNotAuthenticated)
			c.Abort()
			return
		}

		if !user.CanManageReports() {
			utils.RespondDetail(c, http.StatusForbidden, utils.MsgNoPermission)
			c.Abort()
			return
		}

		c.Next()
	}
}
