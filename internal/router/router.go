package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by Setup.
type Handlers struct {
	Teachers    *handler.TeacherHandler
	Rooms       *handler.RoomHandler
	Groups      *handler.GroupHandler
	Constraints *handler.ConstraintHandler
	Timetable   *handler.TimetableHandler
	Audit       *handler.AuditHandler
	Ops         *handler.MetricsHandler
}

// Setup builds the gin engine with global middleware and all routes.
func Setup(cfg *config.Config, h Handlers, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, middleware.ActorHeader))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Ops.Health)
	r.GET("/ready", h.Ops.Ready)
	r.GET("/metrics", h.Ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Identity(middleware.IdentityConfig{
		Secret:       cfg.Auth.JWTSecret,
		Issuer:       cfg.Auth.JWTIssuer,
		DefaultActor: cfg.Auth.DefaultActor,
	}))

	teachers := api.Group("/teachers")
	{
		teachers.GET("", h.Teachers.List)
		teachers.GET("/:id", h.Teachers.Get)
		teachers.POST("", h.Teachers.Create)
		teachers.PUT("/:id", h.Teachers.Update)
		teachers.DELETE("/:id", h.Teachers.Delete)
	}

	rooms := api.Group("/rooms")
	{
		rooms.GET("", h.Rooms.List)
		rooms.GET("/:id", h.Rooms.Get)
		rooms.POST("", h.Rooms.Create)
		rooms.PUT("/:id", h.Rooms.Update)
		rooms.DELETE("/:id", h.Rooms.Delete)
	}

	groups := api.Group("/groups")
	{
		groups.GET("", h.Groups.List)
		groups.GET("/:id", h.Groups.Get)
		groups.POST("", h.Groups.Create)
		groups.PUT("/:id", h.Groups.Update)
		groups.DELETE("/:id", h.Groups.Delete)
	}

	constraints := api.Group("/constraints")
	{
		constraints.GET("", h.Constraints.List)
		constraints.GET("/:id", h.Constraints.Get)
		constraints.POST("", h.Constraints.Create)
		constraints.PUT("/:id", h.Constraints.Update)
		constraints.DELETE("/:id", h.Constraints.Delete)
	}

	api.POST("/generate", h.Timetable.Generate)
	api.GET("/timetable", h.Timetable.List)
	api.GET("/timetable/export/:format", h.Timetable.Export)
	api.GET("/audit-logs", h.Audit.List)

	return r
}
