package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"authgate/internal/logging"
	"authgate/internal/metrics"
	"authgate/internal/token"
	"authgate/internal/user"
	"authgate/pkg/hash"
)

var (
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrUserNotFound = errors.New("user not found")
)

// Неудачные попытки входа не попадают в аудит-лог, но считаются во внутренней
// метрике. Причина не различает "нет пользователя" и "неверный пароль".
const reasonInvalidCredentials = "invalid_credentials"

type UserRepository interface {
	GetByIdentifier(ctx context.Context, identifier string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type TokenRepository interface {
	Save(ctx context.Context, t *token.Token) error
	GetByToken(ctx context.Context, tokenStr string) (*token.Token, error)
	DeleteByToken(ctx context.Context, tokenStr string) error
}

type AuthService struct {
	users  UserRepository
	tokens TokenRepository
	ttl    time.Duration
	log    logging.Logger
}

func NewAuthService(users UserRepository, tokens TokenRepository, ttl time.Duration, log logging.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		log:    log,
	}
}

// Login проверяет учётные данные и выпускает токен сессии.
// Отсутствующий пользователь и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, identifier, password, sourceAddr string) (*token.Token, *user.User, error) {
	u, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			metrics.AuthRejectionsTotal.WithLabelValues(reasonInvalidCredentials).Inc()
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, fmt.Errorf("user lookup: %w", err)
	}

	ok, err := hash.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, nil, fmt.Errorf("password check: %w", err)
	}
	if !ok {
		metrics.AuthRejectionsTotal.WithLabelValues(reasonInvalidCredentials).Inc()
		return nil, nil, ErrInvalidCreds
	}

	t, err := token.NewSessionToken(u.ID, s.ttl)
	if err != nil {
		return nil, nil, fmt.Errorf("token generation: %w", err)
	}

	// Токен не возвращается вызывающему, если запись не сохранилась.
	if err := s.tokens.Save(ctx, t); err != nil {
		return nil, nil, fmt.Errorf("token save: %w", err)
	}

	s.log.Info(ctx, "user.login",
		"event_id", uuid.NewString(),
		"user_id", u.ID,
		"action", "login",
		"source_address", sourceAddr,
	)
	metrics.LoginsTotal.Inc()

	return t, u, nil
}

// Logout идемпотентен: удаление уже отозванного или неизвестного токена —
// тоже успех, конечное состояние "токен непригоден" достигнуто.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	if err := s.tokens.DeleteByToken(ctx, tokenStr); err != nil {
		return fmt.Errorf("token delete: %w", err)
	}
	return nil
}

// WhoAmI возвращает пользователя по ID из разрешённой сессии. Пользователь мог
// быть удалён после выпуска токена — это не причина для паники.
func (s *AuthService) WhoAmI(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return u, nil
}
