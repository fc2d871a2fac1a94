package app

import (
	"strings"

	"github.com/yungbote/lumo-engine/internal/clients/content"
	"github.com/yungbote/lumo-engine/internal/clients/remote"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type Clients struct {
	Remote  *remote.Client
	Content content.Client
}

func wireClients(log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")

	remoteClient := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteAuthToken, cfg.RemoteTimeout, log)

	var bundle *content.Bundle
	if dir := strings.TrimSpace(cfg.ContentBundleDir); dir != "" {
		bundle = content.NewBundle(dir)
	}
	contentClient := content.NewClient(bundle, remoteClient, cfg.ContentCacheTTL, log)

	return Clients{
		Remote:  remoteClient,
		Content: contentClient,
	}
}
