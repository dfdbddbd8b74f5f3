package imagestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "boleto:images:"

// RedisStore keeps one hash per session, field = image id, so every
// instance behind a load balancer can serve the images.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(session string) string { return s.keyPrefix + session }

func (s *RedisStore) Save(ctx context.Context, session string, images map[string][]byte, ttl time.Duration) error {
	if session == "" {
		return fmt.Errorf("imagestore: empty session")
	}
	if len(images) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	fields := make(map[string]any, len(images))
	for id, data := range images {
		fields[id] = data
	}
	key := s.key(session)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save images of session %s: %w", session, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, session, id string) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.key(session), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image %s: %w", id, err)
	}
	return data, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
