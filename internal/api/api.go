package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nomena/pharmastock/internal/api/handlers"
	"github.com/nomena/pharmastock/internal/api/middleware"
	"github.com/nomena/pharmastock/internal/service"
)

type Services struct {
	Medicines   *service.MedicineService
	Entries     *service.EntryService
	Expeditions *service.ExpeditionService
	Dashboard   *service.DashboardService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	medicineHandler := handlers.NewMedicineHandler(services.Medicines)
	medicineGroup := apiGroup.Group("/medicines")
	{
		medicineGroup.GET("", medicineHandler.List)
		medicineGroup.POST("", medicineHandler.Create)
		medicineGroup.GET("/:id", medicineHandler.Get)
		medicineGroup.PUT("/:id", medicineHandler.Update)
		medicineGroup.DELETE("/:id", medicineHandler.Delete)
	}

	entryHandler := handlers.NewEntryHandler(services.Entries, services.Medicines)
	entryGroup := apiGroup.Group("/entries")
	{
		entryGroup.GET("", entryHandler.List)
		entryGroup.POST("", entryHandler.Create)
		entryGroup.GET("/:id", entryHandler.Get)
		entryGroup.PUT("/:id", entryHandler.Update)
		entryGroup.DELETE("/:id", entryHandler.Delete)
	}

	expeditionHandler := handlers.NewExpeditionHandler(services.Expeditions, services.Medicines)
	expeditionGroup := apiGroup.Group("/expeditions")
	{
		expeditionGroup.GET("", expeditionHandler.List)
		expeditionGroup.POST("", expeditionHandler.Create)
		expeditionGroup.GET("/:id", expeditionHandler.Get)
		expeditionGroup.PUT("/:id", expeditionHandler.Update)
		expeditionGroup.DELETE("/:id", expeditionHandler.Delete)
	}

	dashboardHandler := handlers.NewDashboardHandler(services.Dashboard)
	apiGroup.GET("/dashboard", dashboardHandler.Get)

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
