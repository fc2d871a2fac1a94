package app

import (
	"github.com/yungbote/lumo-engine/internal/http/handlers"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
	"github.com/yungbote/lumo-engine/internal/realtime"
)

type Handlers struct {
	Session  *handlers.SessionHandler
	Progress *handlers.ProgressHandler
	Sync     *handlers.SyncHandler
	Events   *handlers.EventsHandler
	Card     *handlers.CardHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Session:  handlers.NewSessionHandler(services.Session),
		Progress: handlers.NewProgressHandler(services.Progress),
		Sync:     handlers.NewSyncHandler(services.Sync),
		Events:   handlers.NewEventsHandler(hub),
		Card:     handlers.NewCardHandler(services.ShareCard),
	}
}
