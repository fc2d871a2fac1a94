package app

import (
	"github.com/yungbote/lumo-engine/internal/http/middleware"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, cfg.JWTSecret),
	}
}
