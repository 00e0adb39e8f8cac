package models

// WasteCategory classifies the kind of waste at a dump site.
type WasteCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Nombre      string `gorm:"type:varchar(100);not null" json:"nombre"`
	Descripcion string `gorm:"type:text;not null;default:''" json:"descripcion"`
}

func (WasteCategory) TableName() string { return "categorias_residuo" }

func (c WasteCategory) String() string { return c.Nombre }
