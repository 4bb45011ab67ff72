package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"authgate/internal/logging"
	"authgate/internal/metrics"
	"authgate/internal/token"
)

// TokenHeader — фиксированный заголовок для передачи токена.
// В URL токен не попадает никогда.
const TokenHeader = "x-auth-token"

type contextKey string

const (
	UserIDKey contextKey = "userID"
	TokenKey  contextKey = "token"
)

// Внутренние причины отказа. Наружу все три отображаются в одинаковый 401,
// чтобы не раскрывать, какая именно проверка не прошла.
const (
	reasonMissing = "missing_token"
	reasonInvalid = "invalid_token"
	reasonExpired = "expired_token"
)

type TokenResolver interface {
	GetByToken(ctx context.Context, tokenStr string) (*token.Token, error)
}

// SessionAuth возвращает middleware, разрешающее токен сессии через хранилище.
func SessionAuth(tokens TokenResolver, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(TokenHeader)
			if presented == "" {
				reject(w, r, log, reasonMissing)
				return
			}

			t, err := tokens.GetByToken(r.Context(), presented)
			if err != nil {
				if errors.Is(err, token.ErrNotFound) {
					reject(w, r, log, reasonInvalid)
					return
				}
				log.Error(r.Context(), "session resolution failed", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "server error")
				return
			}

			if t.IsExpired(time.Now()) {
				reject(w, r, log, reasonExpired)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, t.UserID)
			ctx = context.WithValue(ctx, TokenKey, presented)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, log logging.Logger, reason string) {
	metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
	log.Debug(r.Context(), "session rejected", "reason", reason)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
