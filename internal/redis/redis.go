// Package redis keeps model replies in Redis so repeated prompts skip the model.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"recipechat/internal/config"
)

// DefaultKeyPrefix namespaces reply keys when the config names none.
const DefaultKeyPrefix = "recipechat:"

const dialTimeout = 3 * time.Second

// ErrCacheMiss is returned by Lookup when no reply is stored under the key.
var ErrCacheMiss = goredis.Nil

var errNotInitialized = errors.New("reply cache not initialized")

// Cache is the reply cache.
type Cache struct {
	inner  *goredis.Client
	prefix string
	addr   string
}

// NewCache connects to the configured server and checks it answers.
func NewCache(cfg config.RedisConfig) (*Cache, error) {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &Cache{inner: client, prefix: prefix, addr: addr}, nil
}

// Addr is the server address, for logs.
func (c *Cache) Addr() string {
	if c == nil {
		return ""
	}
	return c.addr
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Lookup returns the stored reply and how long it has left to live.
func (c *Cache) Lookup(ctx context.Context, key string) (string, time.Duration, error) {
	if c == nil || c.inner == nil {
		return "", 0, errNotInitialized
	}
	var (
		get *goredis.StringCmd
		ttl *goredis.DurationCmd
	)
	_, err := c.inner.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		get = pipe.Get(ctx, c.key(key))
		ttl = pipe.TTL(ctx, c.key(key))
		return nil
	})
	if errors.Is(get.Err(), goredis.Nil) {
		return "", 0, ErrCacheMiss
	}
	if err != nil {
		return "", 0, fmt.Errorf("lookup %s: %w", key, err)
	}
	return get.Val(), ttl.Val(), nil
}

// Store saves reply under key for ttl; a zero ttl keeps it until evicted.
func (c *Cache) Store(ctx context.Context, key, reply string, ttl time.Duration) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	if err := c.inner.Set(ctx, c.key(key), reply, ttl).Err(); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection, used by the health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.inner == nil {
		return errNotInitialized
	}
	return c.inner.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
