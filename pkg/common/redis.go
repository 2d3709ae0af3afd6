package common

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/types"
)

// RedisClient wraps a go-redis client with config-driven construction.
type RedisClient struct {
	redis.UniversalClient
}

type redisClientOptions struct {
	clientName string
}

type RedisClientOption func(*redisClientOptions)

func WithClientName(name string) RedisClientOption {
	return func(o *redisClientOptions) {
		o.clientName = name
	}
}

func NewRedisClient(cfg types.RedisConfig, opts ...RedisClientOption) (*RedisClient, error) {
	options := &redisClientOptions{clientName: cfg.ClientName}
	for _, opt := range opts {
		opt(options)
	}

	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis: no addresses configured")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		ClientName:   options.clientName,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	log.Info().Strs("addrs", cfg.Addrs).Msg("connected to redis")
	return &RedisClient{UniversalClient: client}, nil
}

// RedisLock is a thin wrapper over redislock for named locks.
type RedisLock struct {
	client *redislock.Client
	locks  map[string]*redislock.Lock
}

type RedisLockOptions struct {
	TtlS    int
	Retries int
}

func NewRedisLock(rdb *RedisClient) *RedisLock {
	return &RedisLock{
		client: redislock.New(rdb),
		locks:  make(map[string]*redislock.Lock),
	}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, opts RedisLockOptions) error {
	var retry redislock.RetryStrategy
	if opts.Retries > 0 {
		retry = redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), opts.Retries)
	}

	lock, err := l.client.Obtain(ctx, key, time.Duration(opts.TtlS)*time.Second, &redislock.Options{
		RetryStrategy: retry,
	})
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}

	l.locks[key] = lock
	return nil
}

func (l *RedisLock) Release(key string) error {
	lock, ok := l.locks[key]
	if !ok {
		return fmt.Errorf("lock %s not held", key)
	}
	delete(l.locks, key)
	return lock.Release(context.Background())
}
