package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/lumo-engine/internal/http/handlers"
	"github.com/yungbote/lumo-engine/internal/http/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	SessionHandler  *handlers.SessionHandler
	ProgressHandler *handlers.ProgressHandler
	SyncHandler     *handlers.SyncHandler
	EventsHandler   *handlers.EventsHandler
	CardHandler     *handlers.CardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("lumo-engine"))

	// The engine binds to loopback; CORS only matters for the local shell UI.
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.Healthcheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Sessions
	api.POST("/sessions", cfg.SessionHandler.Start)
	api.GET("/sessions", cfg.SessionHandler.List)
	api.GET("/sessions/can-start", cfg.SessionHandler.CanStart)
	api.GET("/sessions/:id", cfg.SessionHandler.Get)
	api.POST("/sessions/:id/attempts", cfg.SessionHandler.RecordAttempt)
	api.POST("/sessions/:id/pause", cfg.SessionHandler.Pause)
	api.POST("/sessions/:id/resume", cfg.SessionHandler.Resume)
	api.POST("/sessions/:id/complete", cfg.SessionHandler.Complete)
	api.GET("/sessions/:id/card.png", cfg.CardHandler.Render)

	// Progress
	api.GET("/lessons/:lessonID/objectives", cfg.ProgressHandler.LessonObjectives)
	api.GET("/units/:unitID/progress", cfg.ProgressHandler.UnitProgress)

	// Sync
	api.POST("/sync/run", cfg.SyncHandler.Run)
	api.GET("/sync/status", cfg.SyncHandler.Status)

	// SSE
	api.GET("/events/stream", cfg.EventsHandler.Stream)

	return router
}
