package models

import (
	"fmt"
	"strings"
	"time"
)

// Report lifecycle: nuevo -> proceso -> resuelto -> cerrado.
const (
	EstadoNuevo    = "nuevo"
	EstadoProceso  = "proceso"
	EstadoResuelto = "resuelto"
	EstadoCerrado  = "cerrado"
)

var estadoLabels = map[string]string{
	EstadoNuevo:    "Nuevo",
	EstadoProceso:  "En Proceso",
	EstadoResuelto: "Resuelto",
	EstadoCerrado:  "Cerrado",
}

// Estados lists the lifecycle values in order.
var Estados = []string{EstadoNuevo, EstadoProceso, EstadoResuelto, EstadoCerrado}

func IsValidEstado(estado string) bool {
	_, ok := estadoLabels[estado]
	return ok
}

// EstadoLabel returns the human readable label of estado.
func EstadoLabel(estado string) string {
	if label, ok := estadoLabels[estado]; ok {
		return label
	}
	return estado
}

type Report struct {
	ID           uint           `gorm:"primaryKey"`
	TrackingCode string         `gorm:"column:codigo_seguimiento;type:varchar(10);uniqueIndex;not null"`
	CategoryID   *uint          `gorm:"column:categoria_id;index"`
	Category     *WasteCategory `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Descripcion  string         `gorm:"type:text"`
	Email        string         `gorm:"type:varchar(254)"`
	// Foto is the media-relative path of the uploaded photo.
	Foto               *string   `gorm:"type:varchar(255)"`
	UbicacionLat       *float64  `gorm:"column:ubicacion_lat;index"`
	UbicacionLng       *float64  `gorm:"column:ubicacion_lng;index"`
	Direccion          string    `gorm:"type:varchar(255)"`
	Estado             string    `gorm:"type:varchar(20);not null;default:'nuevo';index"`
	NotasInternas      string    `gorm:"type:text"`
	FechaCreacion      time.Time `gorm:"autoCreateTime;index"`
	FechaActualizacion time.Time `gorm:"autoUpdateTime"`
	CreatedByID        *uint     `gorm:"column:creado_por_id"`
	CreatedBy          *User     `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	AssignedToID       *uint     `gorm:"column:asignado_a_id"`
	AssignedTo         *User     `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`

	Notifications []Notification `gorm:"foreignKey:ReportID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Report) TableName() string { return "reportes" }

func (r Report) String() string {
	category := "Sin categoría"
	if r.Category != nil {
		category = r.Category.Nombre
	}
	return fmt.Sprintf("%s - %s", r.TrackingCode, category)
}

// Location returns the report coordinates; ok is false unless both are set.
func (r *Report) Location() (loc Location, ok bool) {
	if r.UbicacionLat == nil || r.UbicacionLng == nil {
		return Location{}, false
	}
	return Location{Lat: *r.UbicacionLat, Lng: *r.UbicacionLng}, true
}

// SetLocation stores loc; nil clears both coordinates.
func (r *Report) SetLocation(loc *Location) {
	if loc == nil {
		r.UbicacionLat, r.UbicacionLng = nil, nil
		return
	}
	lat, lng := loc.Lat, loc.Lng
	r.UbicacionLat, r.UbicacionLng = &lat, &lng
}

// ReportResponse is the list representation of a report.
type ReportResponse struct {
	ID                 uint      `json:"id"`
	CodigoSeguimiento  string    `json:"codigo_seguimiento"`
	Categoria          *uint     `json:"categoria"`
	CategoriaNombre    *string   `json:"categoria_nombre"`
	Descripcion        string    `json:"descripcion"`
	Email              string    `json:"email"`
	Foto               *string   `json:"foto"`
	Lat                *float64  `json:"lat"`
	Lng                *float64  `json:"lng"`
	Direccion          string    `json:"direccion"`
	Estado             string    `json:"estado"`
	NotasInternas      string    `json:"notas_internas"`
	FechaCreacion      time.Time `json:"fecha_creacion"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
	AsignadoA          *uint     `json:"asignado_a"`
}

// ReportDetailResponse adds the creator's username.
type ReportDetailResponse struct {
	ReportResponse
	CreadoPorNombre *string `json:"creado_por_nombre"`
}

// ToResponse serializes the report; mediaURL prefixes the photo path.
// Category must be preloaded for categoria_nombre.
func (r *Report) ToResponse(mediaURL string) ReportResponse {
	resp := ReportResponse{
		ID:                 r.ID,
		CodigoSeguimiento:  r.TrackingCode,
		Categoria:          r.CategoryID,
		Descripcion:        r.Descripcion,
		Email:              r.Email,
		Direccion:          r.Direccion,
		Estado:             r.Estado,
		NotasInternas:      r.NotasInternas,
		FechaCreacion:      r.FechaCreacion,
		FechaActualizacion: r.FechaActualizacion,
		AsignadoA:          r.AssignedToID,
	}
	if r.Category != nil {
		name := r.Category.Nombre
		resp.CategoriaNombre = &name
	}
	if r.Foto != nil && *r.Foto != "" {
		url := strings.TrimRight(mediaURL, "/") + "/" + strings.TrimLeft(*r.Foto, "/")
		resp.Foto = &url
	}
	if loc, ok := r.Location(); ok {
		resp.Lat, resp.Lng = &loc.Lat, &loc.Lng
	}
	return resp
}

// ToDetailResponse serializes the detail view; CreatedBy must be preloaded.
func (r *Report) ToDetailResponse(mediaURL string) ReportDetailResponse {
	detail := ReportDetailResponse{ReportResponse: r.ToResponse(mediaURL)}
	if r.CreatedBy != nil {
		name := r.CreatedBy.Username
		detail.CreadoPorNombre = &name
	}
	return detail
}
