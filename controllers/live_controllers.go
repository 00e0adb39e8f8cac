package controllers

import (
	"net/http"

	"github.com/ecoalerta/ecoalerta-api/hub"
	"github.com/ecoalerta/ecoalerta-api/middlewares"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type LiveController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewLiveController accepts websocket handshakes from the allowed origins
// only; requests without an Origin header (non-browser clients) pass.
func NewLiveController(h *hub.Hub, allowedOrigins []string) *LiveController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &LiveController{
		Hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ReportFeed streams report events to a staff dashboard.
func (lc *LiveController) ReportFeed(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondDetail(c, http.StatusUnauthorized, utils.MsgNotAuthenticated)
		return
	}

	ws, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Websocket upgrade failed for %s: %v", user.Username, err)
		return
	}

	lc.Hub.Register(ws, user.ID)
	utils.InfoLogger.Printf("Live feed connected: %s (%d clients)", user.Username, lc.Hub.Clients())

	// the feed is one-way; reading only detects the disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	lc.Hub.Unregister(ws)
	utils.InfoLogger.Printf("Live feed disconnected: %s", user.Username)
}
