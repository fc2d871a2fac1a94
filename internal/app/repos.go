package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type Repos struct {
	Session        repos.SessionRepo
	Attempt        repos.ExerciseAttemptRepo
	OutcomeSummary repos.OutcomeSummaryRepo
	OutboxEntry    repos.OutboxEntryRepo
	SyncState      repos.SyncStateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Session:        repos.NewSessionRepo(db, log),
		Attempt:        repos.NewExerciseAttemptRepo(db, log),
		OutcomeSummary: repos.NewOutcomeSummaryRepo(db, log),
		OutboxEntry:    repos.NewOutboxEntryRepo(db, log),
		SyncState:      repos.NewSyncStateRepo(db, log),
	}
}
