package cache

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "mpesa:access_token"

// TokenStore keeps the Daraja bearer token in Redis so restarts and
// replicas share one token instead of each fetching their own. Errors are
// logged and treated as cache misses.
type TokenStore struct {
	client *redis.Client
	logger *log.Logger
}

func NewTokenStore(client *redis.Client, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &TokenStore{client: client, logger: logger}
}

func (s *TokenStore) Get(ctx context.Context) (string, bool) {
	token, err := s.client.Get(ctx, tokenKey).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Printf("token cache read failed: %v", err)
		}
		return "", false
	}
	return token, token != ""
}

func (s *TokenStore) Set(ctx context.Context, token string, ttl time.Duration) {
	if err := s.client.Set(ctx, tokenKey, token, ttl).Err(); err != nil {
		s.logger.Printf("token cache write failed: %v", err)
	}
}
