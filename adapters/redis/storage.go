// Package redis persists the progress record and satellite sets in Redis,
// for deployments that want progress to survive across app servers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tripquest/core"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr         string        `json:"addr"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	KeyPrefix    string        `json:"key_prefix"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns sensible defaults for Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		KeyPrefix:    "tripquest",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store keeps the record as a JSON blob under {prefix}:progress and each
// satellite key as a set under {prefix}:satellite:{key}.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "tripquest"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Load(ctx context.Context) (core.ProgressRecord, bool, error) {
	b, err := s.client.Get(ctx, s.recordKey()).Bytes()
	if err == redis.Nil {
		return core.ProgressRecord{}, false, nil
	}
	if err != nil {
		return core.ProgressRecord{}, false, fmt.Errorf("redis get: %w", err)
	}
	rec := core.DefaultRecord()
	if err := json.Unmarshal(b, &rec); err != nil {
		// Corrupt blob: report absent so the engine falls back to defaults.
		return core.ProgressRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *Store) Save(ctx context.Context, rec core.ProgressRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.recordKey(), b, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) LoadSet(ctx context.Context, key string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	return ids, nil
}

func (s *Store) SaveSet(ctx context.Context, key string, ids []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.setKey(key))
	if len(ids) > 0 {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, s.setKey(key), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) recordKey() string {
	return s.prefix + ":progress"
}

func (s *Store) setKey(key string) string {
	return s.prefix + ":satellite:" + key
}
