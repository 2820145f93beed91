package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/policyradar/policyradar/internal/domain/document"
)

// corpusKey is the suffix under the configured prefix holding the corpus.
const corpusKey = "corpus"

// RedisConfig holds connection parameters for the Redis driver.
type RedisConfig struct {
	Addrs     []string
	Password  string
	KeyPrefix string
}

// RedisStore persists the corpus as a single JSON value in Redis. A single
// SET is atomic, matching the replace-wholesale snapshot semantics.
type RedisStore struct {
	client rueidis.Client
	key    string
}

// NewRedisStore connects to Redis.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &RedisStore{client: client, key: cfg.KeyPrefix + corpusKey}, nil
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	cmd := r.client.B().Ping().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until Redis responds or the timeout expires.
func (r *RedisStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := r.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close shuts down the client.
func (r *RedisStore) Close() {
	r.client.Close()
}

// Load reads the persisted corpus. A missing key is an empty corpus.
func (r *RedisStore) Load(ctx context.Context) ([]document.Document, error) {
	cmd := r.client.B().Get().Key(r.key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}

	var docs []document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse corpus at %s: %w", r.key, err)
	}
	return docs, nil
}

// Save replaces the persisted corpus with a single SET.
func (r *RedisStore) Save(ctx context.Context, docs []document.Document) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	cmd := r.client.B().Set().Key(r.key).Value(string(data)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}
