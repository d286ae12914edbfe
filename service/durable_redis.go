package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/go-redis/redis/v8"
)

var _ DurableStore = (*RedisDurable)(nil)

// redisSchemaVersion is stored under <prefix>schema_version.
const redisSchemaVersion = 1

// RedisDurable persists manifestations as JSON values under prefix+protocol.
type RedisDurable struct {
	client *redis.Client
	prefix string

	mu        sync.Mutex
	versioned bool
}

// NewRedisClient creates a client from config. No connection is made until
// the first command.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisDurable wraps client; prefix namespaces every key.
func NewRedisDurable(client *redis.Client, prefix string) *RedisDurable {
	return &RedisDurable{client: client, prefix: prefix}
}

func (r *RedisDurable) key(protocol string) string {
	return r.prefix + protocol
}

// ensureVersion records the schema version once per process. A value
// written by a newer release is refused. Failures are retried on the next
// call.
func (r *RedisDurable) ensureVersion(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.versioned {
		return nil
	}

	key := r.prefix + "schema_version"
	set, err := r.client.SetNX(ctx, key, redisSchemaVersion, 0).Result()
	if err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	if !set {
		raw, err := r.client.Get(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if v, _ := strconv.Atoi(raw); v > redisSchemaVersion {
			return fmt.Errorf("redis schema version %d is newer than supported %d", v, redisSchemaVersion)
		}
	}
	r.versioned = true
	return nil
}

// Put stores the record without expiry.
func (r *RedisDurable) Put(ctx context.Context, m *model.Manifestation) error {
	if err := r.ensureVersion(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Protocol, err)
	}
	if err := r.client.Set(ctx, r.key(m.Protocol), payload, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", m.Protocol, err)
	}
	return nil
}

// Get returns (nil, nil) when the key is missing.
func (r *RedisDurable) Get(ctx context.Context, protocol string) (*model.Manifestation, error) {
	raw, err := r.client.Get(ctx, r.key(protocol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", protocol, err)
	}

	var m model.Manifestation
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", protocol, err)
	}
	return &m, nil
}

func (r *RedisDurable) Close() error {
	return r.client.Close()
}
