package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"authgate/internal/api/dto"
	"authgate/internal/auth/service"
	"authgate/internal/logging"
	"authgate/pkg/middleware"
)

type Handler struct {
	AuthService *service.AuthService
	Log         logging.Logger
}

func NewHandler(as *service.AuthService, log logging.Logger) *Handler {
	return &Handler{
		AuthService: as,
		Log:         log,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "identifier and password required")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "identifier and password required")
		return
	}

	t, u, err := h.AuthService.Login(r.Context(), req.Identifier, req.Password, r.RemoteAddr)
	if err != nil {
		// Отсутствующий пользователь и неверный пароль дают байт-в-байт
		// одинаковый ответ, заголовок с токеном не выставляется.
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Log.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	w.Header().Set(middleware.TokenHeader, t.Token)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": t.Token,
		"user":  u.Projection(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenStr, _ := r.Context().Value(middleware.TokenKey).(string)

	if err := h.AuthService.Logout(r.Context(), tokenStr); err != nil {
		h.Log.Error(r.Context(), "logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.AuthService.WhoAmI(r.Context(), userID)
	if err != nil {
		// Пользователь мог исчезнуть после выпуска токена — отвечаем
		// общей ошибкой, деталь остаётся в логах.
		h.Log.Error(r.Context(), "whoami failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, u.Projection())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
