package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout ставит дедлайн на контекст запроса. Обращения к хранилищу —
// единственные точки ожидания; при исчерпании пула соединений запрос получает
// ограниченную по времени ошибку вместо бесконечного зависания.
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
