package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	domainRepo "github.com/sangkips/vendas-api/internal/domain/repository"
)

const idempotencyKeyPrefix = "idempotency:"

// RedisIdempotencyRepository keeps idempotency records in Redis and lets
// key expiry do the cleanup.
type RedisIdempotencyRepository struct {
	client *redis.Client
}

var _ domainRepo.IdempotencyRepository = (*RedisIdempotencyRepository)(nil)

func NewRedisIdempotencyRepository(addr string, password string, db int) *RedisIdempotencyRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisIdempotencyRepository{client: client}
}

func (r *RedisIdempotencyRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisIdempotencyRepository) Close() error {
	return r.client.Close()
}

func (r *RedisIdempotencyRepository) GetByKey(ctx context.Context, key string, endpoint string) (*entity.IdempotencyKey, error) {
	val, err := r.client.Get(ctx, redisIdempotencyKey(key, endpoint)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ikey entity.IdempotencyKey
	if err := json.Unmarshal([]byte(val), &ikey); err != nil {
		return nil, err
	}
	return &ikey, nil
}

// Reserve stores a pending record with SETNX, so only one of several
// concurrent requests under the same key gets it.
func (r *RedisIdempotencyRepository) Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error) {
	payload, ttl, err := encodeIdempotencyKey(ikey)
	if err != nil || ttl <= 0 {
		return false, err
	}
	return r.client.SetNX(ctx, redisIdempotencyKey(ikey.Key, ikey.Endpoint), payload, ttl).Result()
}

// Complete overwrites the pending record with the response until ExpiresAt.
func (r *RedisIdempotencyRepository) Complete(ctx context.Context, ikey *entity.IdempotencyKey) error {
	payload, ttl, err := encodeIdempotencyKey(ikey)
	if err != nil || ttl <= 0 {
		return err
	}
	return r.client.Set(ctx, redisIdempotencyKey(ikey.Key, ikey.Endpoint), payload, ttl).Err()
}

func (r *RedisIdempotencyRepository) Release(ctx context.Context, key string, endpoint string) error {
	return r.client.Del(ctx, redisIdempotencyKey(key, endpoint)).Err()
}

// DeleteExpired is a no-op; Redis evicts records at their TTL.
func (r *RedisIdempotencyRepository) DeleteExpired(ctx context.Context) error {
	return nil
}

func redisIdempotencyKey(key, endpoint string) string {
	return idempotencyKeyPrefix + endpoint + ":" + key
}

func encodeIdempotencyKey(ikey *entity.IdempotencyKey) ([]byte, time.Duration, error) {
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(ikey)
	if err != nil {
		return nil, 0, err
	}
	return payload, time.Until(ikey.ExpiresAt), nil
}
