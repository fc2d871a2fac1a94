package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lumo-engine/internal/outbox"
	"github.com/yungbote/lumo-engine/internal/platform/envutil"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type Config struct {
	// Local store
	StoreDriver string
	StoreDSN    string

	// Platform backend
	RemoteBaseURL   string
	RemoteAuthToken string
	RemoteTimeout   time.Duration

	// Device identity. The engine serves one signed-in learner.
	UserID    uuid.UUID
	JWTSecret string

	// Sync and janitor cadence
	SyncInterval  time.Duration
	JanitorCron   string
	AbandonAfter  time.Duration

	// Outbox retry policy
	OutboxBackoffBase time.Duration
	OutboxBackoffCap  time.Duration
	OutboxBatchLimit  int

	// Content resolution
	ContentBundleDir string
	ContentCacheTTL  time.Duration

	Port string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		StoreDriver:       envutil.String("STORE_DRIVER", "sqlite"),
		StoreDSN:          envutil.String("STORE_DSN", "lumo-engine.db"),
		RemoteBaseURL:     envutil.String("REMOTE_BASE_URL", "http://localhost:9000"),
		RemoteAuthToken:   envutil.String("REMOTE_AUTH_TOKEN", ""),
		RemoteTimeout:     envutil.Duration("REMOTE_TIMEOUT", 15*time.Second),
		JWTSecret:         envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		SyncInterval:      envutil.Duration("SYNC_INTERVAL", 45*time.Second),
		JanitorCron:       envutil.String("JANITOR_CRON", "0 3 * * *"),
		AbandonAfter:      envutil.Duration("SESSION_ABANDON_AFTER", 24*time.Hour),
		OutboxBackoffBase: envutil.Duration("OUTBOX_BACKOFF_BASE", time.Second),
		OutboxBackoffCap:  envutil.Duration("OUTBOX_BACKOFF_CAP", 5*time.Minute),
		OutboxBatchLimit:  envutil.Int("OUTBOX_BATCH_LIMIT", 100),
		ContentBundleDir:  envutil.String("CONTENT_BUNDLE_DIR", ""),
		ContentCacheTTL:   envutil.Duration("CONTENT_CACHE_TTL", 15*time.Minute),
		Port:              envutil.String("PORT", "8080"),
	}

	rawUser := envutil.String("USER_ID", "")
	if rawUser != "" {
		id, err := uuid.Parse(rawUser)
		if err != nil {
			log.Warn("USER_ID is not a valid uuid, scheduler sync disabled", "value", rawUser, "error", err)
		} else {
			cfg.UserID = id
		}
	}
	return cfg
}

func (c Config) OutboxConfig() outbox.Config {
	return outbox.Config{
		BackoffBase: c.OutboxBackoffBase,
		BackoffCap:  c.OutboxBackoffCap,
		BatchLimit:  c.OutboxBatchLimit,
	}
}
