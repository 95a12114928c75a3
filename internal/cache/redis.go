package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"insightpaper/internal/models"
)

const challengeKeyPrefix = "insightpaper:otp:"

// Connect initializes a Redis client from a redis:// URL or host:port.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisChallengeStore keeps emailed OTP challenges in Redis. The key expires
// with the challenge, and a Put replaces whatever was stored for the address.
type RedisChallengeStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client, now: time.Now}
}

func challengeKey(email string) string {
	return challengeKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (s *RedisChallengeStore) PutChallenge(ctx context.Context, c models.OTPChallenge) error {
	ttl := c.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.DeleteChallenge(ctx, c.Email)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode otp challenge: %w", err)
	}
	if err := s.client.Set(ctx, challengeKey(c.Email), data, ttl).Err(); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}
	return nil
}

// GetChallenge returns nil when no live challenge exists.
func (s *RedisChallengeStore) GetChallenge(ctx context.Context, email string) (*models.OTPChallenge, error) {
	data, err := s.client.Get(ctx, challengeKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get otp challenge: %w", err)
	}
	var c models.OTPChallenge
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode otp challenge: %w", err)
	}
	return &c, nil
}

func (s *RedisChallengeStore) DeleteChallenge(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, challengeKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp challenge: %w", err)
	}
	return nil
}
