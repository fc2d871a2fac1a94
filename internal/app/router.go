package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lumo-engine/internal/http/server"
)

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:  middleware.Auth,
		SessionHandler:  handlers.Session,
		ProgressHandler: handlers.Progress,
		SyncHandler:     handlers.Sync,
		EventsHandler:   handlers.Events,
		CardHandler:     handlers.Card,
	})
}
