package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var ErrNotFound = errors.New("token not found")

// tokenBytes даёт 256 бит энтропии — подбор и коллизии исключены.
const tokenBytes = 32

type Token struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at"` // nil = бессрочный
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired: токен жив, только если срок строго в будущем.
func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

func GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// NewSessionToken выпускает непрозрачный токен сессии с заданным TTL.
func NewSessionToken(userID int64, ttl time.Duration) (*Token, error) {
	tokenStr, err := GenerateToken(tokenBytes)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(ttl)

	return &Token{
		UserID:    userID,
		Token:     tokenStr,
		ExpiresAt: &expiresAt,
	}, nil
}
