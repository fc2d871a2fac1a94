package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/outbox"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
	"github.com/yungbote/lumo-engine/internal/realtime"
	"github.com/yungbote/lumo-engine/internal/services"
)

type Services struct {
	Queue     outbox.Queue
	Session   services.SessionService
	Sync      services.SyncService
	Progress  services.ProgressService
	Scheduler services.SchedulerService
	ShareCard services.ShareCardService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, hub *realtime.Hub, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	queue := outbox.NewQueue(db, log, repos.OutboxEntry, cfg.OutboxConfig())

	sessionService := services.NewSessionService(
		db, log,
		repos.Session,
		repos.Attempt,
		repos.OutcomeSummary,
		queue,
		clients.Content,
		hub,
	)

	syncService := services.NewSyncService(
		db, log,
		queue,
		clients.Remote,
		repos.Session,
		repos.SyncState,
		hub,
	)

	progressService := services.NewProgressService(
		db, log,
		repos.Session,
		repos.Attempt,
		repos.OutcomeSummary,
		clients.Content,
	)

	schedulerService, err := services.NewSchedulerService(log, syncService, sessionService, services.SchedulerConfig{
		UserID:       cfg.UserID,
		SyncInterval: cfg.SyncInterval,
		JanitorCron:  cfg.JanitorCron,
		AbandonAfter: cfg.AbandonAfter,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init scheduler: %w", err)
	}
	syncService.SetNextRunFn(schedulerService.NextSyncAt)

	shareCardService, err := services.NewShareCardService(log, sessionService, repos.OutcomeSummary, clients.Content)
	if err != nil {
		return Services{}, fmt.Errorf("init share card service: %w", err)
	}

	return Services{
		Queue:     queue,
		Session:   sessionService,
		Sync:      syncService,
		Progress:  progressService,
		Scheduler: schedulerService,
		ShareCard: shareCardService,
	}, nil
}
