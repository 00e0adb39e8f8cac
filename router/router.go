package router

import (
	"net/http"
	"strings"

	"github.com/ecoalerta/ecoalerta-api/config"
	"github.com/ecoalerta/ecoalerta-api/controllers"
	"github.com/ecoalerta/ecoalerta-api/hub"
	"github.com/ecoalerta/ecoalerta-api/middlewares"
	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/services"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter builds the engine with every API route. liveHub may be nil,
// in which case a new hub is created.
func SetupRouter(db *gorm.DB, cfg *config.Config, liveHub *hub.Hub) *gin.Engine {
	r := gin.New()
	// paths keep their trailing slash and are never rewritten by redirect
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	if err := r.SetTrustedProxies(cfg.Proxies()); err != nil {
		utils.ErrorLogger.Printf("Invalid TRUSTED_PROXIES, trusting none: %v", err)
		_ = r.SetTrustedProxies(nil)
	}

	if err := utils.RegisterValidators(models.IsValidEstado); err != nil {
		utils.ErrorLogger.Printf("Error registering validators: %v", err)
	}

	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.AllowedOrigins()))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(cfg.RateLimitPerSecond, 1).RateLimit())
	r.MaxMultipartMemory = cfg.MaxUploadMB << 20

	mediaURL := "/" + strings.Trim(cfg.MediaURL, "/")
	r.Static(mediaURL, cfg.MediaRoot)

	if liveHub == nil {
		liveHub = hub.New()
	}
	tokens := utils.NewTokenManager(cfg.SecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// services
	reportSvc := services.NewReportService(db, liveHub, cfg.MediaURL)
	photos := services.NewPhotoStorage(cfg.MediaRoot, cfg.MaxUploadMB)
	heatmapSvc := services.NewHeatmapService(db)
	exportSvc := services.NewExportService(db, reportSvc, cfg.MediaURL)

	// controllers
	authCtrl := controllers.NewAuthController(db, tokens)
	categoryCtrl := controllers.NewCategoryController(db, cfg.PageSize)
	reportCtrl := controllers.NewReportController(db, reportSvc, photos, cfg.MediaURL, cfg.PageSize)
	notificationCtrl := controllers.NewNotificationController(reportSvc)
	analyticsCtrl := controllers.NewAnalyticsController(heatmapSvc, cfg.HeatmapDefaultRadius)
	exportCtrl := controllers.NewExportController(exportSvc)
	diagnosticCtrl := controllers.NewDiagnosticController(db)
	liveCtrl := controllers.NewLiveController(liveHub, cfg.AllowedOrigins())

	requireAuth := middlewares.AuthMiddleware(db, tokens)
	optionalAuth := middlewares.OptionalAuth(db, tokens)
	staffOnly := middlewares.RequireStaff()

	r.NoRoute(func(c *gin.Context) {
		utils.RespondNotFound(c)
	})

	api := r.Group("/api")

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	api.GET("/health/", diagnosticCtrl.Health)
	api.GET("/diagnostic/db-status/", diagnosticCtrl.DBStatus)

	auth := api.Group("/auth")
	auth.Use(middlewares.NewStrictRateLimiter(cfg.AuthRateLimitPerMinute).Handler())
	{
		auth.POST("/login/", authCtrl.Login)
		auth.POST("/token/", authCtrl.ObtainToken)
		auth.POST("/token/refresh/", authCtrl.RefreshToken)
		auth.POST("/token/verify/", authCtrl.VerifyToken)
	}

	api.GET("/categorias/", categoryCtrl.GetAllCategories)
	api.GET("/categorias/:id/", categoryCtrl.GetCategoryByID)

	api.GET("/reportes/", reportCtrl.GetAllReports)
	api.POST("/reportes/", optionalAuth, reportCtrl.CreateReport)
	api.GET("/reportes/:id/", reportCtrl.GetReportByID)

	api.GET("/analytics/heatmap/", analyticsCtrl.GetHeatmap)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := api.Group("/")
	staff.Use(requireAuth, staffOnly)
	{
		staff.GET("/reportes/estadisticas/", reportCtrl.GetStatistics)
		staff.GET("/reportes/exportar/", exportCtrl.ExportCSV)
		staff.GET("/reportes/exportar-pdf/", exportCtrl.ExportPDF)
		staff.PATCH("/reportes/:id/", reportCtrl.UpdateReport)
		staff.DELETE("/reportes/:id/", reportCtrl.DeleteReport)
		staff.PATCH("/reportes/:id/actualizar_estado/", reportCtrl.UpdateStatus)
		staff.GET("/reportes/:id/notificaciones/", notificationCtrl.GetReportNotifications)
		staff.PATCH("/notificaciones/:id/leer/", notificationCtrl.MarkAsRead)
	}

	api.GET("/ws/reportes/", middlewares.WebSocketAuthMiddleware(db, tokens), staffOnly, liveCtrl.ReportFeed)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "ecoalerta-api", "api": "/api/"})
	})

	return r
}
