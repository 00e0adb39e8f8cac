package database

import (
	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DefaultCategories are loaded by Seed.
var DefaultCategories = []models.WasteCategory{
	{Nombre: "Residuos Domésticos", Descripcion: "Basura doméstica común"},
	{Nombre: "Escombros de Construcción", Descripcion: "Materiales de construcción"},
	{Nombre: "Residuos Electrónicos", Descripcion: "Equipos electrónicos desechados"},
	{Nombre: "Residuos Orgánicos", Descripcion: "Desechos orgánicos biodegradables"},
	{Nombre: "Residuos Peligrosos", Descripcion: "Materiales tóxicos o peligrosos"},
	{Nombre: "Mixtos", Descripcion: "Mezcla de diferentes tipos de residuos"},
}

const (
	defaultInspectorUsername = "inspector"
	defaultInspectorEmail    = "inspector@ecoalerta.cl"
)

// SeedResult counts what Seed created.
type SeedResult struct {
	CategoriesCreated int
	InspectorCreated  bool
}

// Seed loads the waste categories and the default inspector account.
// Running it again creates nothing new.
func Seed(db *gorm.DB, inspectorPassword string) (*SeedResult, error) {
	result := &SeedResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, cat := range DefaultCategories {
			category := cat
			res := tx.Where(models.WasteCategory{Nombre: cat.Nombre}).
				Attrs(models.WasteCategory{Descripcion: cat.Descripcion}).
				FirstOrCreate(&category)
			if res.Error != nil {
				return errors.Wrapf(res.Error, "seed category %s", cat.Nombre)
			}
			if res.RowsAffected > 0 {
				result.CategoriesCreated++
				utils.InfoLogger.Printf("Categoría creada: %s", category.Nombre)
			} else {
				utils.InfoLogger.Printf("Categoría ya existe: %s", category.Nombre)
			}
		}

		var existing int64
		if err := tx.Model(&models.User{}).Where("username = ?", defaultInspectorUsername).Count(&existing).Error; err != nil {
			return errors.Wrap(err, "look up inspector")
		}
		if existing > 0 {
			utils.InfoLogger.Println("Usuario inspector ya existe")
			return nil
		}

		inspector := models.NewUser(defaultInspectorUsername, models.TipoInspector)
		inspector.Email = defaultInspectorEmail
		if err := inspector.SetPassword(inspectorPassword); err != nil {
			return errors.Wrap(err, "hash inspector password")
		}
		if err := tx.Create(inspector).Error; err != nil {
			return errors.Wrap(err, "create inspector")
		}
		result.InspectorCreated = true
		utils.InfoLogger.Printf("Usuario inspector creado (usuario: %s)", defaultInspectorUsername)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
