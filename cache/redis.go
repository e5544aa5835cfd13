// Package cache keeps petition detail reads in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"petitionhub-backend/config"
	"petitionhub-backend/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "petitionhub:petition:"

// PetitionCache is a cache-aside store for petitions keyed by ID
type PetitionCache struct {
	db  *redis.Client
	ttl time.Duration
}

// Connect opens a Redis client and checks it is reachable
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	const op = "cache.Connect"

	db := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// NewPetitionCache wraps a Redis client
func NewPetitionCache(db *redis.Client, ttl time.Duration) *PetitionCache {
	return &PetitionCache{db: db, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Get returns the cached petition. ok is false on a miss.
func (c *PetitionCache) Get(ctx context.Context, id uuid.UUID) (*models.Petition, bool, error) {
	const op = "cache.PetitionCache.Get"

	val, err := c.db.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	petition := &models.Petition{}
	if err := json.Unmarshal(val, petition); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return petition, true, nil
}

// Set stores the petition for the configured TTL
func (c *PetitionCache) Set(ctx context.Context, petition *models.Petition) error {
	const op = "cache.PetitionCache.Set"

	data, err := json.Marshal(petition)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.db.Set(ctx, key(petition.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate drops the cached petition
func (c *PetitionCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	const op = "cache.PetitionCache.Invalidate"

	if err := c.db.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
