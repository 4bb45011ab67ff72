package repository

import (
	"context"
	"database/sql"
	"errors"

	"authgate/internal/user"
)

type PostgresUserRepository struct {
	db *sql.DB
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetByIdentifier ищет пользователя по username ИЛИ email (точное совпадение).
func (r *PostgresUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*user.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users
		WHERE username = $1 OR email = $1 LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users
		WHERE id = $1 LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresUserRepository) scanOne(row *sql.Row) (*user.User, error) {
	u := &user.User{}
	var email sql.NullString

	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	if email.Valid {
		u.Email = &email.String
	}

	return u, nil
}
