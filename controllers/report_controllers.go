package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecoalerta/ecoalerta-api/middlewares"
	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/services"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

type ReportController struct {
	DB       *gorm.DB
	Reports  *services.ReportService
	Photos   *services.PhotoStorage
	MediaURL string
	PageSize int
}

func NewReportController(db *gorm.DB, reports *services.ReportService, photos *services.PhotoStorage, mediaURL string, pageSize int) *ReportController {
	return &ReportController{DB: db, Reports: reports, Photos: photos, MediaURL: mediaURL, PageSize: pageSize}
}

// GetAllReports lists reports, newest first, filtered by estado, categoria
// and codigo.
func (rc *ReportController) GetAllReports(c *gin.Context) {
	filter := services.ParseReportFilter(c.Query("estado"), c.Query("categoria"), c.Query("codigo"))
	query := filter.Apply(rc.DB.WithContext(c.Request.Context()).Model(&models.Report{}))

	paged, page, err := utils.Paginate(c, query, rc.PageSize)
	if errors.Is(err, utils.ErrInvalidPage) {
		utils.RespondDetail(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.ErrorLogger.Printf("Error counting reports: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var reports []models.Report
	if err := paged.Preload("Category").Find(&reports).Error; err != nil {
		utils.ErrorLogger.Printf("Error listing reports: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	results := make([]models.ReportResponse, 0, len(reports))
	for i := range reports {
		results = append(results, reports[i].ToResponse(rc.MediaURL))
	}
	page.Results = results
	utils.RespondJSON(c, http.StatusOK, page)
}

type createReportRequest struct {
	Categoria   looseValue `json:"categoria" form:"categoria"`
	Descripcion string     `json:"descripcion" form:"descripcion"`
	Email       string     `json:"email" form:"email" binding:"omitempty,email,max=254"`
	Direccion   string     `json:"direccion" form:"direccion" binding:"max=255"`
	Lat         looseValue `json:"lat" form:"lat"`
	Lng         looseValue `json:"lng" form:"lng"`
}

// CreateReport accepts a citizen report as JSON or multipart form with an
// optional "foto" file.
func (rc *ReportController) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidation(c, err)
		return
	}

	if req.Lat.Empty() || req.Lng.Empty() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("Debe proporcionar lat y lng"))
		return
	}
	loc, err := parseLocation(req.Lat.Raw, req.Lng.Raw)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var categoryID *uint
	if !req.Categoria.Empty() {
		id, err := strconv.ParseUint(req.Categoria.Raw, 10, 64)
		if err != nil {
			utils.RespondFieldError(c, "categoria", "Tipo incorrecto. Se esperaba valor de clave primaria.")
			return
		}
		cat := uint(id)
		categoryID = &cat
	}

	in := services.CreateReportInput{
		CategoryID:  categoryID,
		Descripcion: req.Descripcion,
		Email:       req.Email,
		Direccion:   req.Direccion,
		Location:    loc,
	}
	if user, ok := middlewares.CurrentUser(c); ok {
		in.CreatedByID = &user.ID
	}

	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		file, err := c.FormFile("foto")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			utils.RespondFieldError(c, "foto", "No se pudo leer el archivo enviado.")
			return
		}
		if file != nil {
			stored, err := rc.Photos.Save(file)
			if errors.Is(err, services.ErrPhotoType) || errors.Is(err, services.ErrPhotoTooLarge) {
				utils.RespondFieldError(c, "foto", err.Error())
				return
			}
			if err != nil {
				utils.ErrorLogger.Printf("Error saving report photo: %v", err)
				utils.RespondError(c, http.StatusInternalServerError, errors.New("error al guardar la imagen"))
				return
			}
			in.Foto = &stored
		}
	}

	report, err := rc.Reports.Create(c.Request.Context(), in)
	if err != nil {
		if in.Foto != nil {
			if rmErr := rc.Photos.Remove(*in.Foto); rmErr != nil {
				utils.ErrorLogger.Printf("Error removing orphan photo %s: %v", *in.Foto, rmErr)
			}
		}
		if errors.Is(err, services.ErrCategoryNotFound) {
			utils.RespondFieldError(c, "categoria", fmt.Sprintf("Clave primaria \"%s\" inválida - objeto no existe.", req.Categoria.Raw))
			return
		}
		utils.ErrorLogger.Printf("Error creating report: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, gin.H{
		"codigo_seguimiento": report.TrackingCode,
		"mensaje":            "Reporte creado exitosamente",
	})
}

// GetReportByID returns the detail representation.
func (rc *ReportController) GetReportByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		utils.RespondNotFound(c)
		return
	}

	var report models.Report
	err := rc.DB.WithContext(c.Request.Context()).
		Preload("Category").Preload("CreatedBy").
		First(&report, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondNotFound(c)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, report.ToDetailResponse(rc.MediaURL))
}

type updateReportRequest struct {
	Categoria     optional[uint]    `json:"categoria"`
	Descripcion   optional[string]  `json:"descripcion"`
	Email         optional[string]  `json:"email"`
	Direccion     optional[string]  `json:"direccion"`
	Estado        optional[string]  `json:"estado"`
	NotasInternas optional[string]  `json:"notas_internas"`
	AsignadoA     optional[uint]    `json:"asignado_a"`
	Lat           optional[float64] `json:"lat"`
	Lng           optional[float64] `json:"lng"`
}

// UpdateReport applies a staff partial update. Read-only keys are ignored.
func (rc *ReportController) UpdateReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		utils.RespondNotFound(c)
		return
	}

	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidation(c, err)
		return
	}

	patch, fieldErrs := req.toPatch()
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, fieldErrs)
		return
	}

	report, err := rc.Reports.Update(c.Request.Context(), id, patch)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondNotFound(c)
		return
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.RespondFieldError(c, "categoria", fmt.Sprintf("Clave primaria \"%d\" inválida - objeto no existe.", *req.Categoria.Value))
		return
	case errors.Is(err, services.ErrUserNotFound):
		utils.RespondFieldError(c, "asignado_a", fmt.Sprintf("Clave primaria \"%d\" inválida - objeto no existe.", *req.AsignadoA.Value))
		return
	case err != nil:
		utils.ErrorLogger.Printf("Error updating report %d: %v", id, err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, report.ToResponse(rc.MediaURL))
}

func (req updateReportRequest) toPatch() (services.ReportPatch, map[string][]string) {
	var patch services.ReportPatch
	errs := map[string][]string{}
	notNull := func(field string, o optional[string]) *string {
		if !o.Set {
			return nil
		}
		if o.Value == nil {
			errs[field] = append(errs[field], "Este campo no puede ser nulo.")
			return nil
		}
		return o.Value
	}

	patch.Descripcion = notNull("descripcion", req.Descripcion)
	patch.Direccion = notNull("direccion", req.Direccion)
	patch.NotasInternas = notNull("notas_internas", req.NotasInternas)
	if email := notNull("email", req.Email); email != nil {
		if *email != "" && !isEmail(*email) {
			errs["email"] = append(errs["email"], "Introduzca una dirección de correo electrónico válida.")
		}
		patch.Email = email
	}
	if estado := notNull("estado", req.Estado); estado != nil {
		if !models.IsValidEstado(*estado) {
			errs["estado"] = append(errs["estado"], fmt.Sprintf("\"%s\" no es una elección válida.", *estado))
		}
		patch.Estado = estado
	}
	if req.Categoria.Set {
		patch.CategoryID = &req.Categoria.Value
	}
	if req.AsignadoA.Set {
		patch.AssignedToID = &req.AsignadoA.Value
	}
	if req.Lat.Set {
		if v := req.Lat.Value; v != nil && !(models.Location{Lat: *v}).Valid() {
			errs["lat"] = append(errs["lat"], "Latitud fuera de rango.")
		}
		patch.Lat = &req.Lat.Value
	}
	if req.Lng.Set {
		if v := req.Lng.Value; v != nil && !(models.Location{Lng: *v}).Valid() {
			errs["lng"] = append(errs["lng"], "Longitud fuera de rango.")
		}
		patch.Lng = &req.Lng.Value
	}
	return patch, errs
}

// DeleteReport removes a report, its notifications and its photo.
func (rc *ReportController) DeleteReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		utils.RespondNotFound(c)
		return
	}

	report, err := rc.Reports.Delete(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondNotFound(c)
		return
	}
	if err != nil {
		utils.ErrorLogger.Printf("Error deleting report %d: %v", id, err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if report.Foto != nil {
		if err := rc.Photos.Remove(*report.Foto); err != nil {
			utils.ErrorLogger.Printf("Error removing photo of %s: %v", report.TrackingCode, err)
		}
	}
	c.Status(http.StatusNoContent)
}

type updateStatusRequest struct {
	Estado        string `json:"estado" binding:"estado"`
	NotasInternas string `json:"notas_internas"`
}

// UpdateStatus changes the lifecycle state and internal notes of a report.
func (rc *ReportController) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		utils.RespondNotFound(c)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidation(c, err)
		return
	}

	user, _ := middlewares.CurrentUser(c)
	report, err := rc.Reports.UpdateStatus(c.Request.Context(), id, user, req.Estado, req.NotasInternas)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondNotFound(c)
		return
	case errors.Is(err, services.ErrInvalidStatus):
		utils.RespondFieldError(c, "estado", fmt.Sprintf("\"%s\" no es una elección válida.", req.Estado))
		return
	case err != nil:
		utils.ErrorLogger.Printf("Error updating status of report %d: %v", id, err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Report %s set to %s by %s", report.TrackingCode, report.Estado, user.Username)
	utils.RespondJSON(c, http.StatusOK, report.ToResponse(rc.MediaURL))
}

// GetStatistics counts reports per lifecycle stage.
func (rc *ReportController) GetStatistics(c *gin.Context) {
	stats, err := rc.Reports.Statistics(c.Request.Context())
	if err != nil {
		utils.ErrorLogger.Printf("Error computing statistics: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, stats)
}

func parseLocation(rawLat, rawLng string) (models.Location, error) {
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	if errLat != nil || errLng != nil || math.IsNaN(lat) || math.IsNaN(lng) {
		return models.Location{}, errors.New("lat y lng deben ser números válidos")
	}
	loc := models.Location{Lat: lat, Lng: lng}
	if !loc.Valid() {
		return models.Location{}, errors.New("Coordenadas fuera de rango")
	}
	return loc, nil
}

func isEmail(s string) bool {
	return binding.Validator.ValidateStruct(struct {
		Email string `binding:"email"`
	}{s}) == nil
}
