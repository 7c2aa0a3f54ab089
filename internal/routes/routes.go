// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"ic-control/internal/config"
	"ic-control/internal/database"
	"ic-control/internal/discovery"
	"ic-control/internal/handler"
	"ic-control/internal/middleware"
	"ic-control/internal/service"
	"ic-control/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config   *config.Config
	logger   *zap.Logger
	db       *database.DB
	session  *service.DeviceSession
	scanners *discovery.ScannerManager
	link     handler.LinkStats
	bus      *handler.EventBus
	ws       *handler.WebSocketHandler
}

// Options carries the optional router dependencies
type Options struct {
	DB       *database.DB
	Scanners *discovery.ScannerManager
	Link     handler.LinkStats
}

// NewRouter creates a new router instance. The session's events are fed to
// a fresh event bus started here.
func NewRouter(cfg *config.Config, logger *zap.Logger, session *service.DeviceSession, opts Options) *Router {
	bus := handler.NewEventBus(logger)
	session.Subscribe(bus.Publish)
	go bus.Start()

	return &Router{
		config:   cfg,
		logger:   logger,
		db:       opts.DB,
		session:  session,
		scanners: opts.Scanners,
		link:     opts.Link,
		bus:      bus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsDevelopment() || r.config.IsDebugEnabled() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	r.addMiddleware(router)
	r.addRoutes(router)
	return router
}

// Close stops event fan-out and disconnects websocket clients
func (r *Router) Close() {
	r.bus.Stop()
	if r.ws != nil {
		r.ws.Close()
	}
}

func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(r.config.Server.AllowedOrigins))

	r.logger.Info("Middleware configured")
}

func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.session, r.link, r.config, r.logger)
	deviceHandler := handler.NewDeviceHandler(r.session, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.session, r.scanners, r.logger)
	settingsHandler := handler.NewSettingsHandler(r.session, r.logger)
	operationHandler := handler.NewOperationHandler(r.session, r.logger)
	registerHandler := handler.NewRegisterHandler(r.session, r.config.Registers.MapPath, r.logger)
	logHandler := handler.NewLogHandler(r.session, r.logger)
	r.ws = handler.NewWebSocketHandler(r.session, r.bus, r.config.Server.AllowedOrigins, r.logger)

	healthHandler.RegisterRoutes(&router.RouterGroup)

	apiV1 := router.Group("/api/v1")
	deviceHandler.RegisterRoutes(apiV1)
	discoveryHandler.RegisterRoutes(apiV1)
	settingsHandler.RegisterRoutes(apiV1)
	operationHandler.RegisterRoutes(apiV1)
	registerHandler.RegisterRoutes(apiV1)
	logHandler.RegisterRoutes(apiV1)
	apiV1.GET("/ws/stats", r.ws.GetConnectionStats)

	r.ws.RegisterRoutes(router.Group("/ws"))

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
