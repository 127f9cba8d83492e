package repositories

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when a bearer token does not exist (never
// issued, or already revoked).
var ErrTokenNotFound = errors.New("token not found")

// TokenRepository manages opaque bearer tokens issued at login.
type TokenRepository interface {
	Issue(ctx context.Context, userID uint) (string, error)
	UserID(ctx context.Context, token string) (uint, error)
	Revoke(ctx context.Context, userID uint) error
}

// RedisTokenRepository implements TokenRepository on Redis. Each user holds at
// most one live token; tokens do not expire, they live until logout.
type RedisTokenRepository struct {
	client *redis.Client
}

// NewRedisTokenRepository creates a new RedisTokenRepository
func NewRedisTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client}
}

func tokenKey(token string) string { return "auth:token:" + token }
func userKey(userID uint) string   { return fmt.Sprintf("auth:user:%d", userID) }

// Issue returns the user's existing token, or mints a new opaque one.
func (r *RedisTokenRepository) Issue(ctx context.Context, userID uint) (string, error) {
	existing, err := r.client.Get(ctx, userKey(userID)).Result()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}

	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	if err := r.client.Set(ctx, tokenKey(token), userID, 0).Err(); err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, userKey(userID), token, 0).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// UserID resolves a presented token to the owning user id.
func (r *RedisTokenRepository) UserID(ctx context.Context, token string) (uint, error) {
	val, err := r.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrTokenNotFound
		}
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, ErrTokenNotFound
	}
	return uint(id), nil
}

// Revoke deletes the user's token, if any.
func (r *RedisTokenRepository) Revoke(ctx context.Context, userID uint) error {
	token, err := r.client.Get(ctx, userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrTokenNotFound
		}
		return err
	}
	return r.client.Del(ctx, tokenKey(token), userKey(userID)).Err()
}
