package repository

import (
	"context"
	"database/sql"
	"errors"

	"authgate/internal/token"
)

type SessionTokenRepository struct {
	db *sql.DB
}

func NewSessionTokenRepository(db *sql.DB) *SessionTokenRepository {
	return &SessionTokenRepository{db: db}
}

func (r *SessionTokenRepository) Save(ctx context.Context, t *token.Token) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		t.UserID, t.Token, t.ExpiresAt)
	return err
}

func (r *SessionTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*token.Token, error) {
	t := &token.Token{}
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at FROM tokens WHERE token = $1`,
		tokenStr).Scan(&t.ID, &t.UserID, &t.Token, &expiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, token.ErrNotFound
		}
		return nil, err
	}

	if expiresAt.Valid {
		t.ExpiresAt = &expiresAt.Time
	}

	return t, nil
}

// DeleteByToken не различает "удалили" и "строки уже не было":
// в обоих случаях токен непригоден.
func (r *SessionTokenRepository) DeleteByToken(ctx context.Context, tokenStr string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE token = $1`,
		tokenStr)
	return err
}

// DeleteExpired — необязательная уборка просроченных строк. Корректность от
// неё не зависит: живость перепроверяется при каждом разрешении токена.
func (r *SessionTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
