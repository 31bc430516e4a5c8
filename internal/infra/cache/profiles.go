package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	domainprofiles "skillbridge/internal/domain/profiles"
	domainratings "skillbridge/internal/domain/ratings"
)

const profileKeyPrefix = "profile:"

type LookupObserver interface {
	CacheLookup(hit bool)
}

// ProfileCache is a read-through cache in front of the profile repository.
// Aggregate writes go to the repository first and then drop the cached entry.
// Redis failures never fail a read; the repository answers instead.
type ProfileCache struct {
	Next     domainprofiles.Repository
	Client   *redis.Client
	TTL      time.Duration
	Observer LookupObserver
	Logger   *slog.Logger
}

func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *ProfileCache) ByID(ctx context.Context, userID string) (*domainprofiles.Profile, error) {
	if p, ok := c.get(ctx, userID); ok {
		c.observe(true)
		return p, nil
	}
	c.observe(false)
	p, err := c.Next.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, p)
	return p, nil
}

func (c *ProfileCache) UpdateAggregate(ctx context.Context, userID string, t domainratings.Type, agg domainratings.Aggregate) error {
	if err := c.Next.UpdateAggregate(ctx, userID, t, agg); err != nil {
		return err
	}
	c.Invalidate(ctx, userID)
	return nil
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID string) {
	if err := c.Client.Del(ctx, profileKeyPrefix+userID).Err(); err != nil {
		c.log().Warn("profile cache invalidate failed", "user_id", userID, "error", err)
	}
}

func (c *ProfileCache) get(ctx context.Context, userID string) (*domainprofiles.Profile, bool) {
	data, err := c.Client.Get(ctx, profileKeyPrefix+userID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log().Warn("profile cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}
	var p domainprofiles.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		c.log().Warn("profile cache entry unreadable", "user_id", userID, "error", err)
		return nil, false
	}
	return &p, true
}

func (c *ProfileCache) set(ctx context.Context, p *domainprofiles.Profile) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, profileKeyPrefix+p.UserID, data, c.ttl()).Err(); err != nil {
		c.log().Warn("profile cache write failed", "user_id", p.UserID, "error", err)
	}
}

func (c *ProfileCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return 5 * time.Minute
	}
	return c.TTL
}

func (c *ProfileCache) observe(hit bool) {
	if c.Observer != nil {
		c.Observer.CacheLookup(hit)
	}
}

func (c *ProfileCache) log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

var _ domainprofiles.Repository = (*ProfileCache)(nil)
