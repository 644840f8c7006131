package agents

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/collectdesk/collectdesk/internal/upstream"
)

const defaultCacheTTL = 10 * time.Minute

// Option is one agent entry offered in the collected-by filter.
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// UserClient is the slice of the upstream client the directory needs.
type UserClient interface {
	ListUsers(ctx context.Context, token string) ([]upstream.User, error)
}

// Directory serves the agent options backing the collected-by filter.
// The upstream directory changes rarely, so options are cached in redis
// per partner and concurrent misses collapse into one upstream call.
type Directory struct {
	client UserClient
	cache  *redis.Client
	logger *slog.Logger
	ttl    time.Duration
	group  singleflight.Group
}

// NewDirectory builds Directory instance.
func NewDirectory(client UserClient, cache *redis.Client, logger *slog.Logger) *Directory {
	return &Directory{
		client: client,
		cache:  cache,
		logger: logger,
		ttl:    defaultCacheTTL,
	}
}

// Options returns the agent filter options for a partner.
func (d *Directory) Options(ctx context.Context, token, partner string) ([]Option, error) {
	key := "agents:" + partner

	if d.cache != nil {
		if cached, err := d.cache.Get(ctx, key).Bytes(); err == nil {
			var options []Option
			if err := json.Unmarshal(cached, &options); err == nil {
				return options, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			d.logger.Warn("agents cache read", slog.Any("error", err))
		}
	}

	v, err, _ := d.group.Do(key, func() (any, error) {
		users, err := d.client.ListUsers(ctx, token)
		if err != nil {
			return nil, err
		}
		options := make([]Option, 0, len(users))
		for _, u := range users {
			label := u.Name
			if label == "" {
				label = unnamedLabel(u.ID)
			}
			options = append(options, Option{ID: u.ID, Label: label})
		}
		if d.cache != nil {
			if payload, err := json.Marshal(options); err == nil {
				if err := d.cache.Set(ctx, key, payload, d.ttl).Err(); err != nil {
					d.logger.Warn("agents cache write", slog.Any("error", err))
				}
			}
		}
		return options, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Option), nil
}

// Invalidate drops the cached options for a partner.
func (d *Directory) Invalidate(ctx context.Context, partner string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, "agents:"+partner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		d.logger.Warn("agents cache invalidate", slog.Any("error", err))
	}
}

func unnamedLabel(id int64) string {
	return "Agent #" + strconv.FormatInt(id, 10)
}
