package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/accesskeep/accesskeep/internal/app"
	"github.com/accesskeep/accesskeep/internal/handlers"
	"github.com/accesskeep/accesskeep/internal/middleware"
	"github.com/accesskeep/accesskeep/internal/realtime"
	"github.com/accesskeep/accesskeep/internal/services"
	"github.com/accesskeep/accesskeep/internal/store"
	"github.com/accesskeep/accesskeep/internal/subjects"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
// The realtime hub is shared with the notification service so feed writes
// reach live subscribers.
func NewRouter(db *gorm.DB, cfg *app.Config, hub *realtime.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	kv, err := store.NewDatabaseStore(db)
	if err != nil {
		return nil, err
	}
	registry, err := subjects.NewRegistry(db)
	if err != nil {
		return nil, err
	}

	notificationSvc, err := services.NewNotificationService(db, hub)
	if err != nil {
		return nil, err
	}
	approvalSvc, err := services.NewApprovalService(kv, registry, notificationSvc, cfg.Approvals.TTL)
	if err != nil {
		return nil, err
	}
	grantSvc, err := services.NewGrantService(kv, approvalSvc, notificationSvc)
	if err != nil {
		return nil, err
	}
	accessSvc, err := services.NewAccessService(approvalSvc, cfg.Approvals.MatchReason)
	if err != nil {
		return nil, err
	}
	globalSvc, err := services.NewGlobalNotificationService(db)
	if err != nil {
		return nil, err
	}

	approvalHandler, err := handlers.NewApprovalHandler(approvalSvc, grantSvc, accessSvc)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := handlers.NewNotificationHandler(notificationSvc, hub)
	if err != nil {
		return nil, err
	}
	globalHandler, err := handlers.NewGlobalNotificationHandler(globalSvc)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.ActorFromHeader())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.RequireActor())

	approvals := api.Group("/approvals")
	{
		approvals.GET("/:kind", approvalHandler.List)
		approvals.POST("/:kind/:subject_id", approvalHandler.Create)
		approvals.GET("/:kind/:subject_id/:approval_id", approvalHandler.Get)
		approvals.POST("/:kind/:subject_id/:approval_id/grant", approvalHandler.Grant)
	}

	api.GET("/authorize/:kind/:subject_id", approvalHandler.Authorize)

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.ListAndReset)
		notifications.GET("/pending", notificationHandler.ListPending)
		notifications.GET("/pending/count", notificationHandler.PendingCount)
		notifications.GET("/stream", notificationHandler.Stream)
	}

	globals := api.Group("/global-notifications")
	{
		globals.GET("", globalHandler.List)
		globals.POST("", globalHandler.Create)
	}

	return r, nil
}
