package models

import (
	"fmt"
	"time"
)

type Notification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReportID      uint      `gorm:"column:reporte_id;not null;index" json:"reporte"`
	Titulo        string    `gorm:"type:varchar(200);not null" json:"titulo"`
	Mensaje       string    `gorm:"type:text;not null" json:"mensaje"`
	Leido         bool      `gorm:"not null;default:false" json:"leido"`
	FechaCreacion time.Time `gorm:"autoCreateTime" json:"fecha_creacion"`
}

func (Notification) TableName() string { return "notificaciones" }

// Label renders the notification title next to its report's tracking code.
func (n Notification) Label(trackingCode string) string {
	return fmt.Sprintf("%s - %s", n.Titulo, trackingCode)
}
