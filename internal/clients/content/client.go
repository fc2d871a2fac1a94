package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/lumo-engine/internal/clients/remote"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

// Client resolves immutable content metadata: lesson packages and unit
// manifests. Resolution is bundle-first (shipped with the app for offline
// use), remote fallback, with a TTL cache in front and singleflight
// collapsing concurrent fetches for the same id.
type Client interface {
	LessonPackage(ctx context.Context, lessonID uuid.UUID) (*domain.LessonPackage, error)
	UnitManifest(ctx context.Context, unitID uuid.UUID) (*domain.UnitManifest, error)
}

type client struct {
	bundle *Bundle
	remote *remote.Client
	cache  *gocache.Cache
	group  singleflight.Group
	log    *logger.Logger
}

func NewClient(bundle *Bundle, remoteClient *remote.Client, ttl time.Duration, baseLog *logger.Logger) Client {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &client{
		bundle: bundle,
		remote: remoteClient,
		cache:  gocache.New(ttl, 2*ttl),
		log:    baseLog.With("client", "ContentClient"),
	}
}

func (c *client) LessonPackage(ctx context.Context, lessonID uuid.UUID) (*domain.LessonPackage, error) {
	key := "lesson:" + lessonID.String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*domain.LessonPackage), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if c.bundle != nil {
			if pkg, err := c.bundle.LessonPackage(lessonID); err == nil {
				return pkg, nil
			} else if !IsNotBundled(err) {
				return nil, err
			}
		}
		if c.remote == nil {
			return nil, fmt.Errorf("lesson %s not bundled and no remote configured", lessonID)
		}
		return c.fetchLessonPackage(ctx, lessonID)
	})
	if err != nil {
		return nil, err
	}
	pkg := v.(*domain.LessonPackage)
	c.cache.SetDefault(key, pkg)
	return pkg, nil
}

func (c *client) UnitManifest(ctx context.Context, unitID uuid.UUID) (*domain.UnitManifest, error) {
	key := "unit:" + unitID.String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*domain.UnitManifest), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if c.bundle != nil {
			if manifest, err := c.bundle.UnitManifest(unitID); err == nil {
				return manifest, nil
			} else if !IsNotBundled(err) {
				return nil, err
			}
		}
		if c.remote == nil {
			return nil, fmt.Errorf("unit %s not bundled and no remote configured", unitID)
		}
		return c.fetchUnitManifest(ctx, unitID)
	})
	if err != nil {
		return nil, err
	}
	manifest := v.(*domain.UnitManifest)
	c.cache.SetDefault(key, manifest)
	return manifest, nil
}

func (c *client) fetchLessonPackage(ctx context.Context, lessonID uuid.UUID) (*domain.LessonPackage, error) {
	resp, err := c.remote.Do(ctx, http.MethodGet, fmt.Sprintf("/content/lessons/%s", lessonID), nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, fmt.Errorf("fetch lesson package: status %d", resp.Status)
	}
	var pkg domain.LessonPackage
	if err := json.Unmarshal(resp.Body, &pkg); err != nil {
		return nil, fmt.Errorf("decode lesson package: %w", err)
	}
	return &pkg, nil
}

func (c *client) fetchUnitManifest(ctx context.Context, unitID uuid.UUID) (*domain.UnitManifest, error) {
	resp, err := c.remote.Do(ctx, http.MethodGet, fmt.Sprintf("/content/units/%s", unitID), nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, fmt.Errorf("fetch unit manifest: status %d", resp.Status)
	}
	var manifest domain.UnitManifest
	if err := json.Unmarshal(resp.Body, &manifest); err != nil {
		return nil, fmt.Errorf("decode unit manifest: %w", err)
	}
	return &manifest, nil
}
