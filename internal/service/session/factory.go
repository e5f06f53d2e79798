package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreType selects a session store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	ttl         time.Duration
	redisClient *redis.Client
	clock       func() time.Time
}

// WithTTL overrides the idle-session expiry duration.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithRedisClient sets the Redis client for the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(clock func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.clock = clock
	}
}

// NewStore creates a session store for the given driver type. The memory
// driver is the in-process default; redis serves multi-instance
// deployments behind the same interface.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{
		ttl:   DefaultTTL,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.ttl <= 0 {
		config.ttl = DefaultTTL
	}

	switch storeType {
	case StoreTypeMemory:
		return &memoryStore{
			sessions: make(map[string]*Data),
			ttl:      config.ttl,
			now:      config.clock,
		}, nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{
			client: config.redisClient,
			ttl:    config.ttl,
		}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}
