package signaling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/medrelay/telemed-api/internal/repository"
)

// SessionChecker answers the relay's only question about the outside
// world: does this session exist.
type SessionChecker interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// cachedSessionChecker fronts the session repository with a short-TTL
// cache. The signaling path is unauthenticated and polled every couple of
// seconds per participant, so hitting the database on every poll would be
// pure waste. Only positive answers are cached: a session that does not
// exist yet must become visible as soon as it is created.
type cachedSessionChecker struct {
	repo  repository.SessionRepository
	cache *cache.Cache
}

func NewCachedSessionChecker(repo repository.SessionRepository, ttl time.Duration) SessionChecker {
	return &cachedSessionChecker{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *cachedSessionChecker) Exists(ctx context.Context, sessionID string) (bool, error) {
	if _, found := c.cache.Get(sessionID); found {
		return true, nil
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		return false, nil
	}

	exists, err := c.repo.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if exists {
		c.cache.SetDefault(sessionID, struct{}{})
	}
	return exists, nil
}
