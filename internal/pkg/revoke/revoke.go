package revoke

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tasknest:revoked:token:"

// Store 维护注销令牌的黑名单。
//
// 注销时以令牌剩余有效期为 TTL 写入 Redis，
// 令牌自然过期后键随之淘汰，无需清理任务。
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Revoke 将令牌加入黑名单，ttl 为令牌的剩余有效期。
func (s *Store) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if s == nil || s.rdb == nil || token == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	key := keyPrefix + hashToken(token)
	if err := s.rdb.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke set: %w", err)
	}
	return nil
}

// IsRevoked 判断令牌是否已注销。
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	if s == nil || s.rdb == nil || token == "" {
		return false, nil
	}
	key := keyPrefix + hashToken(token)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("revoke exists: %w", err)
	}
	return n > 0, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
