package repository

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"unichance/internal/common/database"
	"unichance/internal/common/logger"
	"unichance/internal/common/metrics"
	"unichance/internal/models"
)

const (
	cacheRequirements = "requirements"
	cacheProfile      = "profile"
)

func requirementsKey(programID int64, asOfYear int) string {
	return fmt.Sprintf("program:requirements:%d:%d", programID, asOfYear)
}

func profileKey(userID string) string {
	return "user:profile:" + userID
}

// CachedStore puts a Redis cache-aside layer in front of a Loader. Concurrent
// misses for the same key share one database load. Redis failures are logged
// and fall through to the database.
type CachedStore struct {
	next            Loader
	cache           *database.RedisClient
	logger          logger.Logger
	profileTTL      time.Duration
	requirementsTTL time.Duration
	group           singleflight.Group
}

func NewCachedStore(next Loader, cache *database.RedisClient, profileTTL, requirementsTTL time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		next:            next,
		cache:           cache,
		logger:          log,
		profileTTL:      profileTTL,
		requirementsTTL: requirementsTTL,
	}
}

func (c *CachedStore) LoadProgram(ctx context.Context, programID int64, asOfYear int) (*models.ProgramRecord, error) {
	key := requirementsKey(programID, asOfYear)

	var cached models.ProgramRecord
	if c.get(ctx, cacheRequirements, key, &cached) {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		rec, err := c.next.LoadProgram(ctx, programID, asOfYear)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, rec, c.requirementsTTL)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ProgramRecord), nil
}

func (c *CachedStore) LoadStudentProfile(ctx context.Context, userID string) (*models.StudentProfileRecord, error) {
	key := profileKey(userID)

	var cached models.StudentProfileRecord
	if c.get(ctx, cacheProfile, key, &cached) {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		rec, err := c.next.LoadStudentProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, rec, c.profileTTL)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.StudentProfileRecord), nil
}

// InvalidateProfile drops a cached profile after the student edits it.
func (c *CachedStore) InvalidateProfile(ctx context.Context, userID string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Del(ctx, profileKey(userID))
}

func (c *CachedStore) get(ctx context.Context, cacheName, key string, dst interface{}) bool {
	if c.cache == nil {
		return false
	}

	found, err := c.cache.GetJSON(ctx, key, dst)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(cacheName, "error").Inc()
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	case !found:
		metrics.CacheLookups.WithLabelValues(cacheName, "miss").Inc()
		return false
	default:
		metrics.CacheLookups.WithLabelValues(cacheName, "hit").Inc()
		return true
	}
}

func (c *CachedStore) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil || ttl <= 0 {
		return
	}
	if err := c.cache.SetJSON(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
