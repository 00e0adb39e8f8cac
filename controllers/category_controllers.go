package controllers

import (
	"errors"
	"net/http"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryController struct {
	DB       *gorm.DB
	PageSize int
}

func NewCategoryController(db *gorm.DB, pageSize int) *CategoryController {
	return &CategoryController{DB: db, PageSize: pageSize}
}

// GetAllCategories
func (cc *CategoryController) GetAllCategories(c *gin.Context) {
	query := cc.DB.WithContext(c.Request.Context()).Model(&models.WasteCategory{}).Order("id")

	paged, page, err := utils.Paginate(c, query, cc.PageSize)
	if errors.Is(err, utils.ErrInvalidPage) {
		utils.RespondDetail(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	categories := []models.WasteCategory{}
	if err := paged.Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	page.Results = categories
	utils.RespondJSON(c, http.StatusOK, page)
}

// GetCategoryByID
func (cc *CategoryController) GetCategoryByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		utils.RespondNotFound(c)
		return
	}

	var category models.WasteCategory
	err := cc.DB.WithContext(c.Request.Context()).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondNotFound(c)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, category)
}
