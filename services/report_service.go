package services

import (
	"context"
	"fmt"

	"github.com/ecoalerta/ecoalerta-api/hub"
	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultCodeAttempts = 5

var (
	ErrInvalidStatus         = errors.New("estado inválido")
	ErrCategoryNotFound      = errors.New("categoría no encontrada")
	ErrUserNotFound          = errors.New("usuario no encontrado")
	ErrTrackingCodeExhausted = errors.New("no se pudo generar un código de seguimiento único")
)

// Broadcaster receives report events for connected dashboards.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

type ReportService struct {
	DB       *gorm.DB
	Events   Broadcaster
	MediaURL string
	// NewCode generates tracking codes; replaced in tests.
	NewCode     func() string
	MaxAttempts int
}

func NewReportService(db *gorm.DB, events *hub.Hub, mediaURL string) *ReportService {
	s := &ReportService{
		DB:          db,
		MediaURL:    mediaURL,
		NewCode:     models.NewTrackingCode,
		MaxAttempts: defaultCodeAttempts,
	}
	// keep a nil *hub.Hub out of the interface so Broadcast is skipped cleanly
	if events != nil {
		s.Events = events
	}
	return s
}

// CreateReportInput carries the citizen-provided fields of a new report.
type CreateReportInput struct {
	CategoryID  *uint
	Descripcion string
	Email       string
	Direccion   string
	Location    models.Location
	Foto        *string
	CreatedByID *uint
}

// Create stores a new report under a fresh tracking code. A duplicate
// code is retried with a new one up to MaxAttempts times.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	db := s.DB.WithContext(ctx)

	if in.CategoryID != nil {
		var count int64
		if err := db.Model(&models.WasteCategory{}).Where("id = ?", *in.CategoryID).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "look up category")
		}
		if count == 0 {
			return nil, ErrCategoryNotFound
		}
	}

	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		report := &models.Report{
			TrackingCode: s.NewCode(),
			CategoryID:   in.CategoryID,
			Descripcion:  in.Descripcion,
			Email:        in.Email,
			Direccion:    in.Direccion,
			Foto:         in.Foto,
			Estado:       models.EstadoNuevo,
			CreatedByID:  in.CreatedByID,
		}
		loc := in.Location
		report.SetLocation(&loc)

		err := db.Omit(clause.Associations).Create(report).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.InfoLogger.Printf("Tracking code %s already taken (attempt %d)", report.TrackingCode, attempt)
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "create report")
		}

		s.notify(ctx, report, "Nuevo reporte", fmt.Sprintf("Se ha recibido el reporte %s", report.TrackingCode))
		if err := db.Preload("Category").First(report, report.ID).Error; err != nil {
			return nil, errors.Wrap(err, "reload report")
		}

		utils.InfoLogger.Printf("Report created: %s", report.TrackingCode)
		s.broadcast(hub.EventReportCreated, report)
		return report, nil
	}

	return nil, ErrTrackingCodeExhausted
}

// UpdateStatus applies a staff status change. An empty estado keeps the
// current one; empty notes keep the current notes. The actor becomes the
// assignee when the report has none.
func (s *ReportService) UpdateStatus(ctx context.Context, id uint, actor *models.User, estado, notas string) (*models.Report, error) {
	if estado != "" && !models.IsValidEstado(estado) {
		return nil, ErrInvalidStatus
	}

	db := s.DB.WithContext(ctx)
	var report models.Report
	if err := db.First(&report, id).Error; err != nil {
		return nil, err
	}

	previous := report.Estado
	if estado != "" {
		report.Estado = estado
	}
	if notas != "" {
		report.NotasInternas = notas
	}
	if report.AssignedToID == nil && actor != nil {
		actorID := actor.ID
		report.AssignedToID = &actorID
	}

	if err := db.Omit(clause.Associations).Save(&report).Error; err != nil {
		return nil, errors.Wrap(err, "save report status")
	}

	if report.Estado != previous {
		s.notify(ctx, &report, "Estado actualizado", fmt.Sprintf("El reporte %s pasó de %s a %s",
			report.TrackingCode, models.EstadoLabel(previous), models.EstadoLabel(report.Estado)))
	}

	if err := db.Preload("Category").First(&report, report.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload report")
	}
	s.broadcast(hub.EventStatusUpdated, &report)
	return &report, nil
}

// ReportPatch holds the fields of a partial update; nil means unchanged.
type ReportPatch struct {
	CategoryID    **uint
	Descripcion   *string
	Email         *string
	Direccion     *string
	Estado        *string
	NotasInternas *string
	AssignedToID  **uint
	Lat           **float64
	Lng           **float64
}

// Update applies a partial update. The tracking code and timestamps are never touched.
func (s *ReportService) Update(ctx context.Context, id uint, patch ReportPatch) (*models.Report, error) {
	db := s.DB.WithContext(ctx)
	var report models.Report
	if err := db.First(&report, id).Error; err != nil {
		return nil, err
	}

	if patch.Estado != nil {
		if !models.IsValidEstado(*patch.Estado) {
			return nil, ErrInvalidStatus
		}
		report.Estado = *patch.Estado
	}
	if patch.CategoryID != nil {
		if cat := *patch.CategoryID; cat != nil {
			var count int64
			if err := db.Model(&models.WasteCategory{}).Where("id = ?", *cat).Count(&count).Error; err != nil {
				return nil, errors.Wrap(err, "look up category")
			}
			if count == 0 {
				return nil, ErrCategoryNotFound
			}
		}
		report.CategoryID = *patch.CategoryID
	}
	if patch.AssignedToID != nil {
		if uid := *patch.AssignedToID; uid != nil {
			var count int64
			if err := db.Model(&models.User{}).Where("id = ?", *uid).Count(&count).Error; err != nil {
				return nil, errors.Wrap(err, "look up user")
			}
			if count == 0 {
				return nil, ErrUserNotFound
			}
		}
		report.AssignedToID = *patch.AssignedToID
	}
	if patch.Descripcion != nil {
		report.Descripcion = *patch.Descripcion
	}
	if patch.Email != nil {
		report.Email = *patch.Email
	}
	if patch.Direccion != nil {
		report.Direccion = *patch.Direccion
	}
	if patch.NotasInternas != nil {
		report.NotasInternas = *patch.NotasInternas
	}
	if patch.Lat != nil {
		report.UbicacionLat = *patch.Lat
	}
	if patch.Lng != nil {
		report.UbicacionLng = *patch.Lng
	}

	if err := db.Omit(clause.Associations).Save(&report).Error; err != nil {
		return nil, errors.Wrap(err, "update report")
	}
	if err := db.Preload("Category").First(&report, report.ID).Error; err != nil {
		return nil, errors.Wrap(err, "reload report")
	}
	return &report, nil
}

// Delete removes a report together with its notifications and returns
// the removed row.
func (s *ReportService) Delete(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, id).Error; err != nil {
			return err
		}
		if err := tx.Where("reporte_id = ?", report.ID).Delete(&models.Notification{}).Error; err != nil {
			return errors.Wrap(err, "delete notifications")
		}
		if err := tx.Delete(&report).Error; err != nil {
			return errors.Wrap(err, "delete report")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Report deleted: %s", report.TrackingCode)
	s.broadcast(hub.EventReportDeleted, map[string]interface{}{"id": report.ID, "codigo_seguimiento": report.TrackingCode})
	return &report, nil
}

// Statistics counts reports per lifecycle stage.
type Statistics struct {
	Total     int64 `json:"total"`
	Nuevos    int64 `json:"nuevos"`
	EnProceso int64 `json:"en_proceso"`
	Resueltos int64 `json:"resueltos"`
	Cerrados  int64 `json:"-"`
}

func (s *ReportService) Statistics(ctx context.Context) (*Statistics, error) {
	var rows []struct {
		Estado string
		Total  int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Report{}).
		Select("estado, COUNT(*) AS total").
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count reports by estado")
	}

	stats := &Statistics{}
	for _, row := range rows {
		stats.Total += row.Total
		switch row.Estado {
		case models.EstadoNuevo:
			stats.Nuevos = row.Total
		case models.EstadoProceso:
			stats.EnProceso = row.Total
		case models.EstadoResuelto:
			stats.Resueltos = row.Total
		case models.EstadoCerrado:
			stats.Cerrados = row.Total
		}
	}
	return stats, nil
}

// Notifications returns the notifications of a report, newest first.
func (s *ReportService) Notifications(ctx context.Context, id uint) ([]models.Notification, error) {
	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Report{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "look up report")
	}
	if count == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	notifs := []models.Notification{}
	err := db.Where("reporte_id = ?", id).
		Order("fecha_creacion DESC").Order("id DESC").
		Find(&notifs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	return notifs, nil
}

// MarkNotificationRead flags a notification as read.
func (s *ReportService) MarkNotificationRead(ctx context.Context, id uint) (*models.Notification, error) {
	db := s.DB.WithContext(ctx)
	var notif models.Notification
	if err := db.First(&notif, id).Error; err != nil {
		return nil, err
	}
	if !notif.Leido {
		notif.Leido = true
		if err := db.Model(&notif).Update("leido", true).Error; err != nil {
			return nil, errors.Wrap(err, "mark notification read")
		}
	}
	return &notif, nil
}

// notify records a notification; failures are logged, the report change stands.
func (s *ReportService) notify(ctx context.Context, report *models.Report, titulo, mensaje string) {
	notif := models.Notification{ReportID: report.ID, Titulo: titulo, Mensaje: mensaje}
	if err := s.DB.WithContext(ctx).Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to record notification for %s: %v", report.TrackingCode, err)
	}
}

func (s *ReportService) broadcast(event string, data interface{}) {
	if s.Events == nil {
		return
	}
	if report, ok := data.(*models.Report); ok {
		data = report.ToResponse(s.MediaURL)
	}
	s.Events.Broadcast(event, data)
}
