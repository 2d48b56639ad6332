// Package redisstore persists state machine states in Redis.
//
// Each state is a plain string value under "<prefix><machine>:<id>":
//
//	client, err := redisstore.Connect(ctx, cfg)
//	store := redisstore.New(client, redisstore.WithPrefix("orders:"))
//	binding := statestore.Bind(store, statestore.Key{Machine: "order", ID: id})
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/statekit/pkg/statestore"
)

const DefaultPrefix = "statekit:"

// Store implements statestore.Store on top of a go-redis client.
type Store struct {
	client        redis.UniversalClient
	prefix        string
	ttl           time.Duration
	scanBatchSize int64
}

var _ statestore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix. The default is DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires stored states after ttl. Zero disables expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithScanBatchSize sets the SCAN COUNT hint used by List.
func WithScanBatchSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.scanBatchSize = n
		}
	}
}

// New wraps client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:        client,
		prefix:        DefaultPrefix,
		scanBatchSize: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewWithConfig wraps client using prefix, TTL and scan size from cfg.
func NewWithConfig(client redis.UniversalClient, cfg Config) *Store {
	return New(client,
		WithPrefix(cfg.KeyPrefix),
		WithTTL(cfg.TTL),
		WithScanBatchSize(cfg.ScanBatchSize),
	)
}

func (s *Store) key(k statestore.Key) string {
	return s.prefix + k.Machine + ":" + k.ID
}

func (s *Store) Load(ctx context.Context, key statestore.Key) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	state, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", statestore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redisstore: load %s: %w", key, err)
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, key statestore.Key, state string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), state, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key statestore.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete %s: %w", key, err)
	}
	return nil
}

// List scans the keyspace for machine using SCAN so Redis is never blocked.
// SCAN may return a key more than once, so ids are sorted and deduplicated.
func (s *Store) List(ctx context.Context, machine string) ([]string, error) {
	base := s.prefix + machine + ":"
	pattern := escapeGlob(base) + "*"

	var (
		ids    []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, s.scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("redisstore: list %s: %w", machine, err)
		}
		for _, k := range batch {
			ids = append(ids, strings.TrimPrefix(k, base))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
