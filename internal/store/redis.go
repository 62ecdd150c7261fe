// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// keyPrefix namespaces credential keys inside a shared Redis instance.
const keyPrefix = "credentials:"

// redisDialTimeout bounds the connectivity check at open time.
const redisDialTimeout = 5 * time.Second

// Redis is a Store backed by a Redis instance, for clients that share a
// credential store across hosts.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis instance at url ("redis://host:port/db")
// and verifies connectivity before returning.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("VALIDATION_STORE_URL").With("url", url).Wrap(err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("NETWORK_STORE_UNREACHABLE").With("url", url).Wrap(err)
	}

	s := &Redis{client: client}
	if err := ensureFormat(ctx, s); err != nil {
		_ = client.Close() //nolint:errcheck // format error takes precedence
		return nil, err
	}
	return s, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", oops.Code("STORE_READ_FAILED").With("key", key).Wrap(err)
	}
	return value, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Remove implements Store.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return oops.Code("STORE_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
