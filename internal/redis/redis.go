package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNil signals a cache miss to callers without importing the driver.
var ErrNil = redis.Nil

// Key prefixes. Conversation locks serialize events for the same ticket so
// the gapless turn-number invariant holds under concurrent webhooks.
const (
	KeyPrefixConversationLock = "triage:lock:conv:"
	KeyPrefixQueryContext     = "triage:ctx:conv:"
)

type Service interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error

	// AcquireConversationLock takes the single-writer lock for a ticket.
	// Returns false when another worker holds it.
	AcquireConversationLock(ctx context.Context, conversationID uint, owner string, expiry time.Duration) (bool, error)
	ReleaseConversationLock(ctx context.Context, conversationID uint) error
}

type client struct {
	rdb *redis.Client
}

func NewClient(addr, password string, db int) (Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &client{rdb: rdb}, nil
}

func (c *client) Get(ctx context.Context, key string) *redis.StringCmd {
	return c.rdb.Get(ctx, key)
}

func (c *client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return c.rdb.Set(ctx, key, value, expiration)
}

func (c *client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return c.rdb.Del(ctx, keys...)
}

func (c *client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	return c.rdb.SetNX(ctx, key, value, expiration)
}

func (c *client) Ping(ctx context.Context) *redis.StatusCmd {
	return c.rdb.Ping(ctx)
}

func (c *client) Close() error {
	return c.rdb.Close()
}

func (c *client) AcquireConversationLock(ctx context.Context, conversationID uint, owner string, expiry time.Duration) (bool, error) {
	key := fmt.Sprintf("%s%d", KeyPrefixConversationLock, conversationID)
	return c.rdb.SetNX(ctx, key, owner, expiry).Result()
}

func (c *client) ReleaseConversationLock(ctx context.Context, conversationID uint) error {
	key := fmt.Sprintf("%s%d", KeyPrefixConversationLock, conversationID)
	return c.rdb.Del(ctx, key).Err()
}
