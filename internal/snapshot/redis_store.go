package snapshot

import (
	"context"
	"time"

	"github.com/storefront-session/internal/cache"
	"github.com/storefront-session/internal/constants"
	"github.com/storefront-session/internal/models"
)

// RedisStore Redis 快照存储（会话语义，可配置 TTL）
type RedisStore struct {
	ttl time.Duration
}

// NewRedisStore 创建 Redis 快照存储，ttlSeconds 为 0 表示不过期
func NewRedisStore(ttlSeconds int) *RedisStore {
	ttl := time.Duration(0)
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &RedisStore{ttl: ttl}
}

func redisKey(field string) string {
	return "snapshot:" + field
}

// Save 整体写入快照
func (s *RedisStore) Save(ctx context.Context, state State) error {
	cart := state.Cart
	if cart == nil {
		cart = []models.LineItem{}
	}
	products := state.Products
	if products == nil {
		products = []models.Product{}
	}
	if err := cache.SetJSON(ctx, redisKey(constants.SnapshotKeyUser), state.User, s.ttl); err != nil {
		return err
	}
	if err := cache.SetJSON(ctx, redisKey(constants.SnapshotKeyCart), cart, s.ttl); err != nil {
		return err
	}
	if err := cache.SetJSON(ctx, redisKey(constants.SnapshotKeyProducts), products, s.ttl); err != nil {
		return err
	}
	return cache.SetJSON(ctx, redisKey(constants.SnapshotKeyToken), state.Token, s.ttl)
}

// Load 读取快照，缺失的键恢复为零值
func (s *RedisStore) Load(ctx context.Context) (State, error) {
	var state State
	var user models.User
	hit, err := cache.GetJSON(ctx, redisKey(constants.SnapshotKeyUser), &user)
	if err != nil {
		return State{}, err
	}
	if hit && user.ID != 0 {
		state.User = &user
	}
	if _, err := cache.GetJSON(ctx, redisKey(constants.SnapshotKeyCart), &state.Cart); err != nil {
		return State{}, err
	}
	if _, err := cache.GetJSON(ctx, redisKey(constants.SnapshotKeyProducts), &state.Products); err != nil {
		return State{}, err
	}
	if _, err := cache.GetJSON(ctx, redisKey(constants.SnapshotKeyToken), &state.Token); err != nil {
		return State{}, err
	}
	return state, nil
}

// Clear 清空快照
func (s *RedisStore) Clear(ctx context.Context) error {
	for _, field := range snapshotKeys() {
		if err := cache.Del(ctx, redisKey(field)); err != nil {
			return err
		}
	}
	return nil
}
