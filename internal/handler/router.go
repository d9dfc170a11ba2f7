package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bike-reserve/internal/handler/api"
	"bike-reserve/internal/handler/middleware"
	"bike-reserve/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	reservationHandler *api.ReservationHandler,
	templateHandler *api.TemplateHandler,
	adminHandler *api.AdminHandler,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, reservationHandler, templateHandler, adminHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, reservationHandler *api.ReservationHandler, templateHandler *api.TemplateHandler, adminHandler *api.AdminHandler) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	apiGroup.Use(middleware.RequireIdentity())
	{
		reservations := apiGroup.Group("/reservations")
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: reservationHandler.CreateReservation},
				{Method: http.MethodGet, Path: "", Handler: reservationHandler.GetUserReservations},
				{Method: http.MethodGet, Path: "/:id", Handler: reservationHandler.GetReservation},
				{Method: http.MethodPost, Path: "/:id/confirm", Handler: reservationHandler.ConfirmReservation},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: reservationHandler.CancelReservation},
			})
		}

		templates := apiGroup.Group("/fixed-slot-templates")
		{
			addRoutes(templates, []route{
				{Method: http.MethodPost, Path: "", Handler: templateHandler.CreateTemplate},
				{Method: http.MethodGet, Path: "", Handler: templateHandler.GetUserTemplates},
				{Method: http.MethodPost, Path: "/:id/pause", Handler: templateHandler.PauseTemplate},
				{Method: http.MethodPost, Path: "/:id/resume", Handler: templateHandler.ResumeTemplate},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: templateHandler.CancelTemplate},
			})
		}

		admin := apiGroup.Group("/admin")
		admin.Use(middleware.RequireStaff())
		{
			addRoutes(admin, []route{
				{Method: http.MethodPost, Path: "/dead-letters/requeue", Handler: adminHandler.RequeueDeadLetters},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, r.Handler)
		case http.MethodPost:
			g.POST(r.Path, r.Handler)
		case http.MethodPut:
			g.PUT(r.Path, r.Handler)
		case http.MethodPatch:
			g.PATCH(r.Path, r.Handler)
		case http.MethodDelete:
			g.DELETE(r.Path, r.Handler)
		default:
			g.Any(r.Path, r.Handler)
		}
	}
}
