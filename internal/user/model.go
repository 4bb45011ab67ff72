package user

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email"`
	PasswordHash string    `json:"-"` // хэш не покидает границу хранилища
	CreatedAt    time.Time `json:"created_at"`
}

// Projection — публичное представление пользователя для ответов API.
type Projection struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
}

func (u *User) Projection() Projection {
	return Projection{ID: u.ID, Username: u.Username, Email: u.Email}
}
