package handler

import (
	"invoicer/internal/autosave"
	"invoicer/internal/export"
	"invoicer/internal/middleware"
	"invoicer/internal/service"
	"invoicer/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig is everything the HTTP surface is built from.
type RouterConfig struct {
	Services    *service.Services
	Sessions    *autosave.Manager
	Hub         *websocket.Hub // optional; /ws is not mounted without it
	Exporter    export.Exporter
	CORSOrigins []string
}

// NewRouter mounts every handler on a fresh engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", middleware.WorkspaceHeader, middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	if cfg.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			websocket.ServeWs(cfg.Hub, c)
		})
	}

	exporter := cfg.Exporter
	if exporter == nil {
		exporter = export.NewPDFExporter()
	}
	svcs := cfg.Services

	NewWorkspaceHandler(svcs.Workspaces).RegisterRoutes(router.Group(""))

	// Everything below works inside one workspace
	scoped := router.Group("", middleware.WorkspaceScope(svcs.Workspaces))
	NewInvoiceHandler(svcs.Invoices, svcs.BankAccounts, exporter).RegisterRoutes(scoped)
	NewEditHandler(cfg.Sessions, svcs.Invoices).RegisterRoutes(scoped)
	NewStatisticsHandler(svcs.Statistics, svcs.Revenue).RegisterRoutes(scoped)
	NewDraftHandler(cfg.Sessions).RegisterRoutes(scoped)
	NewCustomerHandler(svcs.Customers).RegisterRoutes(scoped)
	NewBusinessHandler(svcs.Businesses).RegisterRoutes(scoped)
	NewBankAccountHandler(svcs.BankAccounts).RegisterRoutes(scoped)
	NewTemplateHandler(svcs.Templates).RegisterRoutes(scoped)

	return router
}
