package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"zaoconnect/internal/domain"
	tokenrepo "zaoconnect/internal/repository/token"
)

type tokenStore interface {
	Create(ctx context.Context, t tokenrepo.Token) error
	Get(ctx context.Context, token string) (*tokenrepo.Token, error)
	Delete(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID string) error
}

type tokenManager struct {
	store tokenStore
}

func newTokenManager(store tokenStore) *tokenManager {
	return &tokenManager{store: store}
}

func (m *tokenManager) Issue(ctx context.Context, userID, kind string, ttl time.Duration) (string, error) {
	expiresAt := time.Now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.store.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      kind,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

func (m *tokenManager) Validate(ctx context.Context, token string) (string, bool) {
	meta, err := m.store.Get(ctx, token)
	if err != nil {
		return "", false
	}
	if meta.Kind != "access" {
		return "", false
	}
	if time.Now().After(meta.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return "", false
	}
	return meta.UserID, true
}

func (m *tokenManager) Revoke(ctx context.Context, token string) error {
	err := m.store.Delete(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (m *tokenManager) RevokeAll(ctx context.Context, userID string) error {
	return m.store.DeleteForUser(ctx, userID)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
