package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
)

const DefaultCacheExpiration = 60 * time.Second

// Provider returns planned routes for a query
type Provider interface {
	Routes(ctx context.Context, query Query) ([]*ctdf.PlannedRoute, error)
}

// CachedProvider keeps provider responses in Redis for a short time.
// Failed lookups are never cached.
type CachedProvider struct {
	Provider Provider
	Cache    *cache.Cache[string]
}

func NewCachedProvider(provider Provider, client *redis.Client, expiration time.Duration) *CachedProvider {
	if expiration <= 0 {
		expiration = DefaultCacheExpiration
	}

	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &CachedProvider{
		Provider: provider,
		Cache:    cache.New[string](redisStore),
	}
}

// CacheKey quantises coordinates to 4 decimal places (about 11m) so nearby requests share an entry
func CacheKey(query Query) string {
	modes := make([]string, 0, len(query.Modes))
	for _, mode := range query.Modes {
		modes = append(modes, mode.Lower())
	}
	modeKey := "all"
	if len(modes) > 0 {
		modeKey = strings.Join(modes, "+")
	}

	return fmt.Sprintf("livetransit:routing:%.4f,%.4f:%.4f,%.4f:%d:%s",
		query.Origin.Lat, query.Origin.Lng,
		query.Destination.Lat, query.Destination.Lng,
		query.Alternatives, modeKey,
	)
}

func (c *CachedProvider) Routes(ctx context.Context, query Query) ([]*ctdf.PlannedRoute, error) {
	key := CacheKey(query)

	if cached, err := c.Cache.Get(ctx, key); err == nil {
		var routes []*ctdf.PlannedRoute
		if err := json.Unmarshal([]byte(cached), &routes); err == nil {
			return routes, nil
		}

		log.Warn().Str("key", key).Msg("Discarding unreadable cached routing response")
	}

	routes, err := c.Provider.Routes(ctx, query)
	if err != nil {
		return nil, err
	}

	routesJSON, err := json.Marshal(routes)
	if err != nil {
		return routes, nil
	}
	if err := c.Cache.Set(ctx, key, string(routesJSON)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache routing response")
	}

	return routes, nil
}
