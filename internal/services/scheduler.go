package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type SchedulerConfig struct {
	UserID        uuid.UUID
	SyncInterval  time.Duration
	JanitorCron   string
	AbandonAfter  time.Duration
	DisableJitter bool
}

// SchedulerService owns the periodic work: sync cycles on an interval and
// the nightly janitor that abandons stale sessions.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop() error
	NextSyncAt() *time.Time
}

type schedulerService struct {
	log       *logger.Logger
	sync      SyncService
	sessions  SessionService
	cfg       SchedulerConfig
	scheduler gocron.Scheduler
	syncJob   gocron.Job
}

func NewSchedulerService(baseLog *logger.Logger, syncSvc SyncService, sessionSvc SessionService, cfg SchedulerConfig) (SchedulerService, error) {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 45 * time.Second
	}
	if cfg.JanitorCron == "" {
		cfg.JanitorCron = "0 3 * * *"
	}
	if cfg.AbandonAfter <= 0 {
		cfg.AbandonAfter = 24 * time.Hour
	}

	// Validate the janitor expression up front rather than at first fire.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.JanitorCron); err != nil {
		return nil, apperr.Validation("invalid janitor cron %q: %v", cfg.JanitorCron, err)
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &schedulerService{
		log:       baseLog.With("service", "SchedulerService"),
		sync:      syncSvc,
		sessions:  sessionSvc,
		cfg:       cfg,
		scheduler: scheduler,
	}, nil
}

func (s *schedulerService) Start(ctx context.Context) error {
	if s.cfg.UserID == uuid.Nil {
		// Without a signed-in user there is nothing to push or pull.
		// The janitor still runs; sync stays off until a restart with
		// USER_ID set.
		s.log.Warn("no user configured, sync job not scheduled")
		return s.startJanitor(ctx)
	}

	interval := s.cfg.SyncInterval
	var syncOpts []gocron.JobOption
	if !s.cfg.DisableJitter {
		// Randomize within +/-10% so a fleet of devices does not thunder
		// at the platform in lockstep.
		low := interval - interval/10
		high := interval + interval/10
		syncJob, err := s.scheduler.NewJob(
			gocron.DurationRandomJob(low, high),
			gocron.NewTask(func() { s.runSync(ctx) }),
			gocron.WithName("sync-cycle"),
		)
		if err != nil {
			return err
		}
		s.syncJob = syncJob
	} else {
		syncJob, err := s.scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() { s.runSync(ctx) }),
			append(syncOpts, gocron.WithName("sync-cycle"))...,
		)
		if err != nil {
			return err
		}
		s.syncJob = syncJob
	}

	return s.startJanitor(ctx)
}

func (s *schedulerService) startJanitor(ctx context.Context) error {
	if _, err := s.scheduler.NewJob(
		gocron.CronJob(s.cfg.JanitorCron, false),
		gocron.NewTask(func() { s.runJanitor(ctx) }),
		gocron.WithName("janitor"),
	); err != nil {
		return err
	}

	s.scheduler.Start()
	s.log.Info("scheduler started",
		"sync_interval", s.cfg.SyncInterval, "janitor_cron", s.cfg.JanitorCron)
	return nil
}

func (s *schedulerService) runSync(ctx context.Context) {
	if _, err := s.sync.RunCycle(ctx, s.cfg.UserID); err != nil {
		s.log.Warn("scheduled sync cycle failed", "error", err)
	}
}

func (s *schedulerService) runJanitor(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.AbandonAfter)
	if _, err := s.sessions.AbandonStale(ctx, cutoff); err != nil {
		s.log.Warn("janitor pass failed", "error", err)
	}
}

func (s *schedulerService) NextSyncAt() *time.Time {
	if s.syncJob == nil {
		return nil
	}
	next, err := s.syncJob.NextRun()
	if err != nil {
		return nil
	}
	return &next
}

func (s *schedulerService) Stop() error {
	return s.scheduler.Shutdown()
}
