package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/app"
	iauth "github.com/fieldsight/fieldsight/internal/auth"
	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/database"
	"github.com/fieldsight/fieldsight/internal/handlers"
	"github.com/fieldsight/fieldsight/internal/middleware"
	"github.com/fieldsight/fieldsight/internal/services"
	"github.com/fieldsight/fieldsight/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers all
// routes. The mailer may be nil when SMTP is disabled.
func NewRouter(db *gorm.DB, hub *collab.Hub, jwt *iauth.JWTService, cfg *app.Config, mailer mail.Mailer) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if hub == nil {
		return nil, fmt.Errorf("collab hub must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	activityService, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	notificationService, err := services.NewNotificationService(db, hub, mailer)
	if err != nil {
		return nil, err
	}
	dispatchService, err := services.NewDispatchService(db, notificationService, activityService)
	if err != nil {
		return nil, err
	}
	teamService, err := services.NewTeamService(db)
	if err != nil {
		return nil, err
	}
	inspectionService, err := services.NewInspectionService(db, activityService)
	if err != nil {
		return nil, err
	}
	investigationService, err := services.NewInvestigationService(db, activityService)
	if err != nil {
		return nil, err
	}
	briefService, err := services.NewBriefService(db, activityService)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}

	identity := middleware.Identity(jwt, database.DemoOfficerID, "Demo Officer")

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// The socket endpoint sits outside /api.
	collabHandler := handlers.NewCollabHandler(hub, jwt)
	r.GET("/ws", identity, collabHandler.Serve)

	api := r.Group("/api")
	api.Use(identity)

	scheduleHandler := handlers.NewScheduleHandler(dispatchService, hub)

	registerAuthRoutes(api, handlers.NewAuthHandler(db, jwt))
	registerInspectionRoutes(api, handlers.NewInspectionHandler(inspectionService, hub))
	registerInvestigationRoutes(api, handlers.NewInvestigationHandler(investigationService, hub), handlers.NewBriefHandler(briefService, hub))
	registerTeamRoutes(api, handlers.NewTeamHandler(teamService), scheduleHandler)
	registerScheduleRoutes(api, scheduleHandler)
	registerNotificationRoutes(api, handlers.NewNotificationHandler(notificationService))
	registerActivityRoutes(api, handlers.NewActivityHandler(activityService))

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
