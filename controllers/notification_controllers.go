package controllers

import (
	"errors"
	"net/http"

	"github.com/ecoalerta/ecoalerta-api/services"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationController struct {
	Reports *services.ReportService
}

func NewNotificationController(reports *services.ReportService) *NotificationController {
	return &NotificationController{Reports: reports}
}

// GetReportNotifications lists the notifications of one report.
func (nc *NotificationController) GetReportNotifications(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		utils.RespondNotFound(c)
		return
	}

	notifs, err := nc.Reports.Notifications(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondNotFound(c)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, notifs)
}

// MarkAsRead
func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		utils.RespondNotFound(c)
		return
	}

	notif, err := nc.Reports.MarkNotificationRead(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondNotFound(c)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, notif)
}
